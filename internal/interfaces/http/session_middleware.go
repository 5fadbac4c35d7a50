package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// LocalUser key del usuario autenticado en c.Locals.
const LocalUser = "user"

// SessionLoader resuelve un JWT al usuario vigente.
type SessionLoader interface {
	Session(ctx context.Context, bearer string) (*entity.User, error)
}

// SessionMiddleware carga el usuario del Bearer Token si lo hay. No rechaza la
// petición: los casos de uso deciden con RequireLogin y un token inválido equivale
// a una sesión anónima.
func SessionMiddleware(sessions SessionLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Next()
		}
		user, err := sessions.Session(c.UserContext(), token)
		if err != nil {
			return err
		}
		if user != nil {
			c.Locals(LocalUser, user)
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUser devuelve el usuario de la sesión o nil si es anónima.
func CurrentUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}
