package dto

// LoginRequest entrada para login; Login acepta username o email.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SetPasswordRequest canje de token de invitación o reseteo.
type SetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// EmailRequest flujos que parten de un email (invitación, reseteo, OTP).
type EmailRequest struct {
	Email string `json:"email"`
}

// ChangePasswordRequest cambio de contraseña con OTP.
type ChangePasswordRequest struct {
	Token           string `json:"token"`
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// TokenRequest verificación, refresco o revocación de un JWT.
type TokenRequest struct {
	Token string `json:"token"`
}

// TokenPayload claims públicos del JWT (unix segundos).
type TokenPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	Exp      int64  `json:"exp"`
	OrigIat  int64  `json:"orig_iat"`
}

// VerifyTokenResponse payload de un token que sigue abriendo sesión.
type VerifyTokenResponse struct {
	Payload TokenPayload `json:"payload"`
}

// RefreshTokenResponse token nuevo; RefreshExpiresIn es el último instante (unix) en que se puede refrescar.
type RefreshTokenResponse struct {
	Token            string       `json:"token"`
	Payload          TokenPayload `json:"payload"`
	RefreshExpiresIn int64        `json:"refresh_expires_in"`
}

// RevokeTokenResponse instante (unix) antes del cual las sesiones del usuario dejan de valer.
type RevokeTokenResponse struct {
	Revoked int64 `json:"revoked"`
}
