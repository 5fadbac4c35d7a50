package auth

import "strings"

// Rutas del frontend que reciben el token.
const (
	setupPasswordPath = "/setup-password/"
	resetPasswordPath = "/reset-password/"
)

// SetupPasswordLink enlace de invitación.
func SetupPasswordLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + setupPasswordPath + token
}

// ResetPasswordLink enlace de reseteo de contraseña.
func ResetPasswordLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + resetPasswordPath + token
}
