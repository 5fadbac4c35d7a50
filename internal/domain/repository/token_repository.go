package repository

import (
	"context"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// TokenRepository persistencia de tokens de enlace y OTP.
// Create* devuelve domain.ErrDuplicate si el valor ya existe (el llamante regenera).
// Get* devuelve nil, nil si no existe; dentro de una transacción bloquea la fila.
// Delete* devuelve domain.ErrNotFound si la fila ya no existía.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *entity.Token) error
	GetToken(ctx context.Context, value string) (*entity.Token, error)
	DeleteToken(ctx context.Context, value string) error

	CreateOTP(ctx context.Context, otp *entity.OTPToken) error
	GetOTP(ctx context.Context, value string) (*entity.OTPToken, error)
	DeleteOTP(ctx context.Context, value string) error
	// DeleteOTPsForUser invalida los OTP anteriores del usuario.
	DeleteOTPsForUser(ctx context.Context, userID string) error

	// DeleteExpired purga tokens y OTP caducados; devuelve cuántas filas borró.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
