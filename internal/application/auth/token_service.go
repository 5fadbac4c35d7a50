package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

// maxIssueAttempts reintentos ante colisión del valor generado.
const maxIssueAttempts = 5

// TokenService genera, busca, valida y consume tokens de enlace y OTP.
type TokenService struct {
	tokenLength int
	otpLength   int
	Now         func() time.Time
}

// NewTokenService tokenLength en bytes aleatorios; otpLength en dígitos.
func NewTokenService(tokenLength, otpLength int) *TokenService {
	return &TokenService{tokenLength: tokenLength, otpLength: otpLength, Now: time.Now}
}

// IssueLinkToken crea un token de enlace para el usuario válido durante ttl.
func (s *TokenService) IssueLinkToken(ctx context.Context, tokens repository.TokenRepository, userID string, ttl time.Duration) (*entity.Token, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		value, err := randomURLSafe(s.tokenLength)
		if err != nil {
			return nil, err
		}
		now := s.Now()
		t := &entity.Token{Value: value, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
		err = tokens.CreateToken(ctx, t)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("token: %d colisiones seguidas", maxIssueAttempts)
}

// IssueOTP crea un OTP numérico e invalida los anteriores del usuario.
func (s *TokenService) IssueOTP(ctx context.Context, tokens repository.TokenRepository, userID string, ttl time.Duration) (*entity.OTPToken, error) {
	if err := tokens.DeleteOTPsForUser(ctx, userID); err != nil {
		return nil, err
	}
	for i := 0; i < maxIssueAttempts; i++ {
		value, err := randomDigits(s.otpLength)
		if err != nil {
			return nil, err
		}
		now := s.Now()
		t := &entity.OTPToken{Token: entity.Token{Value: value, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}}
		err = tokens.CreateOTP(ctx, t)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("otp: %d colisiones seguidas", maxIssueAttempts)
}

// LookupToken object_not_found si el valor no existe.
func (s *TokenService) LookupToken(ctx context.Context, tokens repository.TokenRepository, value string) (*entity.Token, error) {
	t, err := tokens.GetToken(ctx, value)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ObjectNotFound("Token", "token", value)
	}
	return t, nil
}

// LookupOTP object_not_found si el valor no existe.
func (s *TokenService) LookupOTP(ctx context.Context, tokens repository.TokenRepository, value string) (*entity.OTPToken, error) {
	t, err := tokens.GetOTP(ctx, value)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ObjectNotFound("Token", "token", value)
	}
	return t, nil
}

// Validate invalid_token si el token caducó.
func (s *TokenService) Validate(t *entity.Token) error {
	if !t.IsValid(s.Now()) {
		return domain.InvalidToken()
	}
	return nil
}

// ValidateOTP comprueba primero la propiedad y después la vigencia.
func (s *TokenService) ValidateOTP(t *entity.OTPToken, userID string) error {
	if !t.OwnedBy(userID) {
		return domain.InvalidToken()
	}
	return s.Validate(&t.Token)
}

// ConsumeToken borra el token; si otra petición lo consumió antes, object_not_found.
func (s *TokenService) ConsumeToken(ctx context.Context, tokens repository.TokenRepository, value string) error {
	err := tokens.DeleteToken(ctx, value)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ObjectNotFound("Token", "token", value)
	}
	return err
}

// ConsumeOTP como ConsumeToken para OTP.
func (s *TokenService) ConsumeOTP(ctx context.Context, tokens repository.TokenRepository, value string) error {
	err := tokens.DeleteOTP(ctx, value)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ObjectNotFound("Token", "token", value)
	}
	return err
}

// randomURLSafe n bytes aleatorios en base64 URL sin relleno.
func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	ten := big.NewInt(10)
	for i := range out {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
