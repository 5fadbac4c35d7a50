package http

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck comprueba una dependencia (base de datos, redis).
type HealthCheck func(ctx context.Context) error

// SystemHandler health y debug de sesión.
type SystemHandler struct {
	checks map[string]HealthCheck
}

func NewSystemHandler(checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{checks: checks}
}

// HealthResponse estado agregado y por dependencia.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DebugResponse identidad de la sesión actual.
type DebugResponse struct {
	User            string `json:"user"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := HealthResponse{Status: "ok", Checks: map[string]string{}}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			out.Status = "degraded"
			out.Checks[name] = err.Error()
			continue
		}
		out.Checks[name] = "ok"
	}
	if out.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(out)
	}
	return c.JSON(out)
}

// Debug godoc
// @Summary      Identidad de la sesión
// @Tags         system
// @Produce      json
// @Success      200  {object}  DebugResponse
// @Router       /debug [get]
func (h *SystemHandler) Debug(c *fiber.Ctx) error {
	u := CurrentUser(c)
	if u == nil {
		return c.JSON(DebugResponse{User: "AnonymousUser"})
	}
	return c.JSON(DebugResponse{User: u.Username, IsAuthenticated: true})
}
