package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evidenta-api/internal/application/auth"
	"github.com/jhoicas/evidenta-api/internal/application/dto"
)

// AuthHandler login y flujos de contraseña con token.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username o email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// VerifyToken godoc
// @Summary      Verificar un JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TokenRequest  true  "token"
// @Success      200   {object}  dto.VerifyTokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/verify [post]
func (h *AuthHandler) VerifyToken(c *fiber.Ctx) error {
	var in dto.TokenRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	out, err := h.uc.VerifyToken(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// RefreshToken godoc
// @Summary      Refrescar un JWT
// @Description  Emite un token con expiración nueva mientras no pase la ventana de refresco desde el login.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TokenRequest  true  "token"
// @Success      200   {object}  dto.RefreshTokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var in dto.TokenRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	out, err := h.uc.RefreshToken(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// RevokeToken godoc
// @Summary      Revocar un JWT y las sesiones anteriores del usuario
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TokenRequest  true  "token"
// @Success      200   {object}  dto.RevokeTokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/revoke [post]
func (h *AuthHandler) RevokeToken(c *fiber.Ctx) error {
	var in dto.TokenRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	out, err := h.uc.RevokeToken(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// SetPassword godoc
// @Summary      Establecer contraseña con token de invitación o reseteo
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetPasswordRequest  true  "token, password, confirm_password"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/auth/set-password [post]
func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var in dto.SetPasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	if err := h.uc.SetPassword(c.UserContext(), in); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Ok: true})
}

// RequestPasswordReset godoc
// @Summary      Solicitar enlace de reseteo
// @Description  Responde igual exista o no el email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmailRequest  true  "email"
// @Success      200   {object}  dto.MessageResponse
// @Router       /api/auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var in dto.EmailRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	if err := h.uc.RequestPasswordReset(c.UserContext(), in); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Ok: true})
}

// SendInvitation godoc
// @Summary      Reenviar invitación
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.EmailRequest  true  "email"
// @Success      200   {object}  dto.MessageResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/invitations [post]
func (h *AuthHandler) SendInvitation(c *fiber.Ctx) error {
	var in dto.EmailRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	if err := h.uc.SendInvitation(c.UserContext(), CurrentUser(c), in); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Ok: true})
}

// RequestPasswordChange godoc
// @Summary      Enviar OTP para cambio de contraseña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.EmailRequest  true  "email"
// @Success      200   {object}  dto.MessageResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/auth/otp [post]
func (h *AuthHandler) RequestPasswordChange(c *fiber.Ctx) error {
	var in dto.EmailRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	if err := h.uc.RequestPasswordChange(c.UserContext(), CurrentUser(c), in); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Ok: true})
}

// ChangePassword godoc
// @Summary      Cambiar contraseña con OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ChangePasswordRequest  true  "token, old_password, new_password, confirm_password"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(err)
	}
	if err := h.uc.ChangePassword(c.UserContext(), CurrentUser(c), in); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Ok: true})
}
