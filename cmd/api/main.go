package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	"github.com/jhoicas/evidenta-api/docs"
	"github.com/jhoicas/evidenta-api/internal/application/auth"
	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/application/usecase"
	"github.com/jhoicas/evidenta-api/internal/application/validation"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/cache"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/memory"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/metrics"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/notification"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/postgres"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/redisstore"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/evidenta-api/internal/interfaces/http"
	"github.com/jhoicas/evidenta-api/pkg/config"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

// roleCacheTTL los roles solo cambian con el seed.
const roleCacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	shutdownTracing := telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Name, cfg.App.Env, log)
	appMetrics := metrics.New()
	health := map[string]httpRouter.HealthCheck{}

	var (
		repos ports.Repositories
		tx    ports.TxRunner
	)
	switch cfg.App.Storage {
	case "memory":
		store := memory.NewStore()
		repos, tx = store.Repositories(), store
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool, log.Named("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		repos, tx = postgres.Repositories(pool), postgres.NewTxRunner(pool)
		health["postgres"] = pool.Ping
	}

	roles := cache.NewRoleCache(repos.Roles, roleCacheTTL)
	repos.Roles = roles

	notifier, err := notification.New(cfg.Notification, log, appMetrics.Registry)
	if err != nil {
		log.Fatal().Err(err).Msg("notificaciones")
	}

	authUC := auth.NewAuthUseCase(tx, repos, notifier,
		auth.NewTokenService(cfg.Auth.TokenLength, cfg.Auth.OTPLength),
		auth.JWTConfig{
			Secret:         cfg.JWT.Secret,
			ExpMinutes:     cfg.JWT.Expiration,
			Issuer:         cfg.JWT.Issuer,
			RefreshMinutes: cfg.JWT.RefreshExpiration,
		},
		auth.FlowConfig{
			FrontendURL:   cfg.Auth.FrontendURL,
			InvitationTTL: time.Duration(cfg.Auth.InvitationLinkExpirationMinutes) * time.Minute,
			ResetTTL:      time.Duration(cfg.Auth.ResetPasswordLinkExpirationMinutes) * time.Minute,
			OTPTTL:        time.Duration(cfg.Auth.ChangePasswordOTPExpirationMinutes) * time.Minute,
		},
		log,
	)
	v := validation.New()
	userUC := usecase.NewUserUseCase(tx, repos, authUC, v)
	companyUC := usecase.NewCompanyUseCase(tx, repos, v)
	roleUC := usecase.NewRoleUseCase(tx, roles, log)

	if cfg.Seed.OnStart {
		if _, err := roleUC.Seed(ctx); err != nil {
			log.Fatal().Err(err).Msg("seed de roles")
		}
	}
	if cfg.Seed.BaseUsers {
		if _, err := roleUC.SeedBaseUsers(ctx, cfg.App.IsProduction()); err != nil {
			log.Fatal().Err(err).Msg("seed de usuarios base")
		}
	}

	jobs := scheduler.New(log)
	if err := jobs.AddTokenCleanup(cfg.Jobs.TokenCleanupSchedule, repos.Tokens, appMetrics); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Jobs.TokenCleanupSchedule).Msg("programar limpieza de tokens")
	}
	jobs.Start()

	var limiterStorage fiber.Storage
	if cfg.Redis.URL != "" {
		rs, err := redisstore.New(cfg.Redis.URL, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rs.Close()
		limiterStorage = rs
		health["redis"] = rs.Ping
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(httpRouter.ObservabilityMiddleware(log, telemetry.Tracer(), appMetrics))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.EnableSwagger && !cfg.App.IsProduction() {
		docs.SwaggerInfo.Title = cfg.App.Name
		app.Get("/openapi.json", func(c *fiber.Ctx) error {
			doc, err := swag.ReadDoc()
			if err != nil {
				return err
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(doc)
		})
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Evidenta API",
			}))
		}
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    userUC,
		CompanyUC: companyUC,
		RoleUC:    roleUC,
		Health:    health,
		Metrics:   appMetrics.Handler(),
		RateLimit: httpRouter.RateLimits{
			Enabled:          cfg.RateLimit.Enabled,
			Max:              cfg.RateLimit.Max,
			Window:           cfg.RateLimit.Window,
			InvitationMax:    cfg.RateLimit.InvitationMax,
			InvitationWindow: cfg.RateLimit.InvitationWindow,
			Storage:          limiterStorage,
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	jobs.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
