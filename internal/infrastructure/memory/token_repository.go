package memory

import (
	"context"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implementación en memoria de repository.TokenRepository.
type TokenRepo struct {
	acc accessor
}

func (r *TokenRepo) CreateToken(ctx context.Context, token *entity.Token) error {
	return r.acc(func(st *state) error {
		if _, ok := st.tokens[token.Value]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.users[token.UserID]; !ok {
			return domain.ErrNotFound
		}
		st.tokens[token.Value] = *token
		return nil
	})
}

func (r *TokenRepo) GetToken(ctx context.Context, value string) (*entity.Token, error) {
	var out *entity.Token
	err := r.acc(func(st *state) error {
		if t, ok := st.tokens[value]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *TokenRepo) DeleteToken(ctx context.Context, value string) error {
	return r.acc(func(st *state) error {
		if _, ok := st.tokens[value]; !ok {
			return domain.ErrNotFound
		}
		delete(st.tokens, value)
		return nil
	})
}

func (r *TokenRepo) CreateOTP(ctx context.Context, otp *entity.OTPToken) error {
	return r.acc(func(st *state) error {
		if _, ok := st.otps[otp.Value]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.users[otp.UserID]; !ok {
			return domain.ErrNotFound
		}
		st.otps[otp.Value] = *otp
		return nil
	})
}

func (r *TokenRepo) GetOTP(ctx context.Context, value string) (*entity.OTPToken, error) {
	var out *entity.OTPToken
	err := r.acc(func(st *state) error {
		if t, ok := st.otps[value]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *TokenRepo) DeleteOTP(ctx context.Context, value string) error {
	return r.acc(func(st *state) error {
		if _, ok := st.otps[value]; !ok {
			return domain.ErrNotFound
		}
		delete(st.otps, value)
		return nil
	})
}

func (r *TokenRepo) DeleteOTPsForUser(ctx context.Context, userID string) error {
	return r.acc(func(st *state) error {
		for k, t := range st.otps {
			if t.UserID == userID {
				delete(st.otps, k)
			}
		}
		return nil
	})
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.acc(func(st *state) error {
		for k, t := range st.tokens {
			if !t.IsValid(now) {
				delete(st.tokens, k)
				n++
			}
		}
		for k, t := range st.otps {
			if !t.IsValid(now) {
				delete(st.otps, k)
				n++
			}
		}
		return nil
	})
	return n, err
}
