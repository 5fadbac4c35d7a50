package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/evidenta-api/internal/application/auth"
	"github.com/jhoicas/evidenta-api/internal/application/usecase"
)

// RateLimits límites de las rutas anónimas y de invitación.
type RateLimits struct {
	Enabled          bool
	Max              int
	Window           time.Duration
	InvitationMax    int
	InvitationWindow time.Duration
	Storage          fiber.Storage
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	UserUC    *usecase.UserUseCase
	CompanyUC *usecase.CompanyUseCase
	RoleUC    *usecase.RoleUseCase
	Health    map[string]HealthCheck
	Metrics   http.Handler
	RateLimit RateLimits
}

// Router registra las rutas de la API. La sesión se resuelve en todas las rutas;
// la autorización la decide cada caso de uso.
func Router(app *fiber.App, deps RouterDeps) {
	system := NewSystemHandler(deps.Health)
	app.Get("/health", system.Health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	app.Use(SessionMiddleware(deps.AuthUC))
	app.Get("/debug", system.Debug)

	api := app.Group("/api")

	throttle := func(max int, window time.Duration) fiber.Handler {
		if !deps.RateLimit.Enabled || max <= 0 {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return RateLimit(max, window, deps.RateLimit.Storage)
	}
	anon := throttle(deps.RateLimit.Max, deps.RateLimit.Window)
	invite := throttle(deps.RateLimit.InvitationMax, deps.RateLimit.InvitationWindow)

	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", anon, authHandler.Login)
	authGroup.Post("/verify", anon, authHandler.VerifyToken)
	authGroup.Post("/refresh", anon, authHandler.RefreshToken)
	authGroup.Post("/revoke", anon, authHandler.RevokeToken)
	authGroup.Post("/set-password", anon, authHandler.SetPassword)
	authGroup.Post("/password-reset", anon, authHandler.RequestPasswordReset)
	authGroup.Post("/invitations", invite, authHandler.SendInvitation)
	authGroup.Post("/otp", invite, authHandler.RequestPasswordChange)
	authGroup.Post("/change-password", authHandler.ChangePassword)

	userHandler := NewUserHandler(deps.UserUC)
	api.Get("/me", userHandler.Me)
	users := api.Group("/users")
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies := api.Group("/companies")
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Patch("/:id", companyHandler.Update)
	companies.Delete("/:id", companyHandler.Delete)

	roleHandler := NewRoleHandler(deps.RoleUC)
	api.Get("/roles", roleHandler.List)
}
