package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

// TokenRepo tokens de enlace (auth_tokens) y OTP (otp_tokens).
// Dentro de una transacción las lecturas bloquean la fila para que dos canjes
// concurrentes del mismo token no tengan éxito ambos.
type TokenRepo struct {
	q    Querier
	inTx bool
}

// NewTokenRepository construye el adaptador de tokens fuera de transacción.
func NewTokenRepository(q Querier) *TokenRepo {
	return &TokenRepo{q: q}
}

func (r *TokenRepo) CreateToken(ctx context.Context, t *entity.Token) error {
	return r.create(ctx, "auth_tokens", t)
}

func (r *TokenRepo) GetToken(ctx context.Context, value string) (*entity.Token, error) {
	return r.get(ctx, "auth_tokens", value)
}

func (r *TokenRepo) DeleteToken(ctx context.Context, value string) error {
	return r.delete(ctx, "auth_tokens", value)
}

func (r *TokenRepo) CreateOTP(ctx context.Context, otp *entity.OTPToken) error {
	return r.create(ctx, "otp_tokens", &otp.Token)
}

func (r *TokenRepo) GetOTP(ctx context.Context, value string) (*entity.OTPToken, error) {
	t, err := r.get(ctx, "otp_tokens", value)
	if err != nil || t == nil {
		return nil, err
	}
	return &entity.OTPToken{Token: *t}, nil
}

func (r *TokenRepo) DeleteOTP(ctx context.Context, value string) error {
	return r.delete(ctx, "otp_tokens", value)
}

func (r *TokenRepo) DeleteOTPsForUser(ctx context.Context, userID string) error {
	if !validID(userID) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM otp_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

// DeleteExpired purga ambas tablas.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"auth_tokens", "otp_tokens"} {
		tag, err := r.q.Exec(ctx, "DELETE FROM "+table+" WHERE expires_at <= $1", now)
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func (r *TokenRepo) create(ctx context.Context, table string, t *entity.Token) error {
	if !validID(t.UserID) {
		return fmt.Errorf("token user: %w", domain.ErrNotFound)
	}
	tag, err := r.q.Exec(ctx, "INSERT INTO "+table+` (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (token) DO NOTHING`,
		t.Value, t.UserID, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("token user: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

func (r *TokenRepo) get(ctx context.Context, table, value string) (*entity.Token, error) {
	query := "SELECT token, user_id::text, expires_at, created_at FROM " + table + " WHERE token = $1"
	if r.inTx {
		query += " FOR UPDATE"
	}
	var t entity.Token
	err := r.q.QueryRow(ctx, query, value).Scan(&t.Value, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return &t, nil
}

func (r *TokenRepo) delete(ctx context.Context, table, value string) error {
	tag, err := r.q.Exec(ctx, "DELETE FROM "+table+" WHERE token = $1", value)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
