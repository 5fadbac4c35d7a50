package entity

import "time"

// TokenKind tipo de token de un solo uso.
type TokenKind string

const (
	TokenKindLink TokenKind = "link" // invitación y reseteo de contraseña
	TokenKindOTP  TokenKind = "otp"  // cambio de contraseña con sesión
)

// Token token de enlace: cadena aleatoria URL-safe ligada a un usuario.
// Se consume (borra) al completar el flujo; si no, caduca.
type Token struct {
	Value     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsValid informa si el token sigue vigente en now.
func (t *Token) IsValid(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

// OTPToken código numérico corto; además de vigente debe pertenecer al usuario de la sesión.
type OTPToken struct {
	Token
}

// OwnedBy informa si el OTP pertenece al usuario indicado.
func (t *OTPToken) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.UserID == userID
}
