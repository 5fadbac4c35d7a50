package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evidenta-api/internal/application/usecase"
)

// RoleHandler consulta de roles.
type RoleHandler struct {
	uc *usecase.RoleUseCase
}

func NewRoleHandler(uc *usecase.RoleUseCase) *RoleHandler {
	return &RoleHandler{uc: uc}
}

// List godoc
// @Summary      Listar roles con sus permisos
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   dto.RoleResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}
