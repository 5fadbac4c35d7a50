package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/application/usecase"
	"github.com/jhoicas/evidenta-api/internal/application/validation"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/pkg/jwt"
	"github.com/jhoicas/evidenta-api/pkg/logger"
	"github.com/jhoicas/evidenta-api/pkg/password"
)

var _ usecase.Inviter = (*AuthUseCase)(nil)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string

	// RefreshMinutes vida total de una cadena de refrescos desde el login.
	RefreshMinutes int
}

// FlowConfig vigencias y destino de los enlaces.
type FlowConfig struct {
	FrontendURL   string
	InvitationTTL time.Duration
	ResetTTL      time.Duration
	OTPTTL        time.Duration
}

// AuthUseCase login, sesión y flujos de contraseña con token.
type AuthUseCase struct {
	tx       ports.TxRunner
	repos    ports.Repositories
	notifier ports.Notifier
	tokens   *TokenService
	jwtCfg   JWTConfig
	flows    FlowConfig
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx ports.TxRunner, repos ports.Repositories, notifier ports.Notifier, tokens *TokenService, jwtCfg JWTConfig, flows FlowConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		tx:       tx,
		repos:    repos,
		notifier: notifier,
		tokens:   tokens,
		jwtCfg:   jwtCfg,
		flows:    flows,
		log:      log.Named("auth"),
	}
}

// Login verifica username o email + password, genera JWT y retorna token + usuario.
// Usuarios inactivos o sin contraseña no pueden entrar.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	login := strings.TrimSpace(in.Login)
	user, err := uc.repos.Users.GetByLogin(ctx, login)
	if err != nil {
		return nil, domain.Expose(err, "AuthUseCase.Login", map[string]any{"login": login}, "")
	}
	if user == nil || !user.IsActive || !password.Check(user.PasswordHash, in.Password) {
		return nil, domain.LoginRequired()
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Username, string(user.RoleName()), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, domain.Expose(err, "AuthUseCase.Login", map[string]any{"login": login}, "")
	}
	return &dto.LoginResponse{Token: token, User: *usecase.ToUserResponse(user)}, nil
}

// Session carga el usuario de un JWT válido. nil si ya no existe, está inactivo
// o la sesión quedó revocada.
func (uc *AuthUseCase) Session(ctx context.Context, bearer string) (*entity.User, error) {
	_, user, err := uc.session(ctx, bearer)
	return user, err
}

func (uc *AuthUseCase) session(ctx context.Context, token string) (*jwt.Claims, *entity.User, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil || claims.IssuedAt == nil {
		return nil, nil, nil
	}
	user, err := uc.repos.Users.GetByID(ctx, access.Unrestricted, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive || user.SessionRevoked(claims.IssuedAt.Time) {
		return nil, nil, nil
	}
	return claims, user, nil
}

// VerifyToken devuelve el payload de un token que todavía abre sesión.
func (uc *AuthUseCase) VerifyToken(ctx context.Context, in dto.TokenRequest) (*dto.VerifyTokenResponse, error) {
	claims, user, err := uc.session(ctx, in.Token)
	if err != nil {
		return nil, domain.Expose(err, "AuthUseCase.VerifyToken", nil, "")
	}
	if user == nil {
		return nil, domain.LoginRequired()
	}
	return &dto.VerifyTokenResponse{Payload: payloadOf(claims)}, nil
}

// RefreshToken emite un token con expiración nueva para un usuario aún activo.
// orig_iat se conserva: pasado RefreshMinutes desde el login hay que volver a entrar.
func (uc *AuthUseCase) RefreshToken(ctx context.Context, in dto.TokenRequest) (*dto.RefreshTokenResponse, error) {
	const method = "AuthUseCase.RefreshToken"
	claims, user, err := uc.session(ctx, in.Token)
	if err != nil {
		return nil, domain.Expose(err, method, nil, "")
	}
	if user == nil {
		return nil, domain.LoginRequired()
	}
	refreshUntil := claims.OrigIssuedAt().Add(time.Duration(uc.jwtCfg.RefreshMinutes) * time.Minute)
	if !uc.tokens.Now().Before(refreshUntil) {
		return nil, domain.LoginRequired()
	}
	claims.Username, claims.Role = user.Username, string(user.RoleName())
	token, err := jwt.Refresh(uc.jwtCfg.Secret, claims, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, domain.Expose(err, method, nil, user.Username)
	}
	fresh, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return nil, domain.Expose(err, method, nil, user.Username)
	}
	return &dto.RefreshTokenResponse{Token: token, Payload: payloadOf(fresh), RefreshExpiresIn: refreshUntil.Unix()}, nil
}

// RevokeToken invalida el token y todas las sesiones del usuario emitidas hasta ahora.
// iat tiene resolución de segundos: el límite cae en el segundo siguiente.
func (uc *AuthUseCase) RevokeToken(ctx context.Context, in dto.TokenRequest) (*dto.RevokeTokenResponse, error) {
	claims, user, err := uc.session(ctx, in.Token)
	if err != nil {
		return nil, domain.Expose(err, "AuthUseCase.RevokeToken", nil, "")
	}
	if user == nil {
		return nil, domain.LoginRequired()
	}
	cutoff := uc.tokens.Now().Truncate(time.Second).Add(time.Second)
	if issued := claims.IssuedAt.Time.Add(time.Second); issued.After(cutoff) {
		cutoff = issued
	}
	if err := uc.repos.Users.RevokeSessions(ctx, user.ID, cutoff); err != nil {
		return nil, domain.Expose(err, "AuthUseCase.RevokeToken", nil, user.Username)
	}
	uc.log.Info().Str("user_id", user.ID).Time("before", cutoff).Msg("sesiones revocadas")
	return &dto.RevokeTokenResponse{Revoked: cutoff.Unix()}, nil
}

func payloadOf(c *jwt.Claims) dto.TokenPayload {
	p := dto.TokenPayload{UserID: c.UserID, Username: c.Username, Role: c.Role, OrigIat: c.OrigIssuedAt().Unix()}
	if c.ExpiresAt != nil {
		p.Exp = c.ExpiresAt.Unix()
	}
	return p
}

// IssueInvitation emite el token de invitación dentro de la transacción del llamante.
func (uc *AuthUseCase) IssueInvitation(ctx context.Context, repos ports.Repositories, user *entity.User) (ports.Notification, error) {
	t, err := uc.tokens.IssueLinkToken(ctx, repos.Tokens, user.ID, uc.flows.InvitationTTL)
	if err != nil {
		return ports.Notification{}, err
	}
	return notificationFor(ports.TemplateInvite, user, SetupPasswordLink(uc.flows.FrontendURL, t.Value), ""), nil
}

// Dispatch entrega la notificación. Un fallo solo se registra: la operación ya está confirmada.
func (uc *AuthUseCase) Dispatch(ctx context.Context, n ports.Notification) {
	if n.Template == "" {
		return
	}
	if err := uc.notifier.Notify(ctx, n); err != nil {
		uc.log.Error().Err(err).Str("template", string(n.Template)).Str("user_id", n.UserID).Msg("no se pudo enviar la notificación")
	}
}

// SendInvitation reenvía la invitación a un usuario visible para el actor.
func (uc *AuthUseCase) SendInvitation(ctx context.Context, actor *entity.User, in dto.EmailRequest) error {
	if err := access.RequireLogin(actor); err != nil {
		return err
	}
	email := normalizeEmail(in.Email)
	var note ports.Notification
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		user, err := repos.Users.GetByEmail(ctx, access.VisibleUsers(actor), email)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ObjectNotFound("User", "email", email)
		}
		note, err = uc.IssueInvitation(ctx, repos, user)
		return err
	})
	if err != nil {
		return domain.Expose(err, "AuthUseCase.SendInvitation", map[string]any{"email": email}, actor.Username)
	}
	uc.Dispatch(ctx, note)
	return nil
}

// SetPassword canjea un token de invitación o reseteo. Anónimo.
func (uc *AuthUseCase) SetPassword(ctx context.Context, in dto.SetPasswordRequest) error {
	if in.Password != in.ConfirmPassword {
		return domain.InvalidPasswords()
	}
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		t, err := uc.tokens.LookupToken(ctx, repos.Tokens, in.Token)
		if err != nil {
			return err
		}
		if err := uc.tokens.Validate(t); err != nil {
			return err
		}
		if fe := validation.Password("password", in.Password); len(fe) > 0 {
			return domain.InvalidValues(fe)
		}
		hash, err := password.Hash(in.Password)
		if err != nil {
			return err
		}
		if err := repos.Users.SetPassword(ctx, t.UserID, hash, uc.tokens.Now()); err != nil {
			return err
		}
		return uc.tokens.ConsumeToken(ctx, repos.Tokens, t.Value)
	})
	return domain.Expose(err, "AuthUseCase.SetPassword", map[string]any{"token": in.Token}, "")
}

// RequestPasswordReset envía el enlace de reseteo. Un email desconocido responde
// igual que uno conocido, sin emitir token ni notificación.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, in dto.EmailRequest) error {
	email := normalizeEmail(in.Email)
	var note ports.Notification
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		user, err := repos.Users.GetByEmail(ctx, access.Unrestricted, email)
		if err != nil || user == nil {
			return err
		}
		t, err := uc.tokens.IssueLinkToken(ctx, repos.Tokens, user.ID, uc.flows.ResetTTL)
		if err != nil {
			return err
		}
		note = notificationFor(ports.TemplateResetPassword, user, ResetPasswordLink(uc.flows.FrontendURL, t.Value), "")
		return nil
	})
	if err != nil {
		return domain.Expose(err, "AuthUseCase.RequestPasswordReset", map[string]any{"email": email}, "")
	}
	uc.Dispatch(ctx, note)
	return nil
}

// RequestPasswordChange envía un OTP al usuario visible con ese email.
func (uc *AuthUseCase) RequestPasswordChange(ctx context.Context, actor *entity.User, in dto.EmailRequest) error {
	if err := access.RequireLogin(actor); err != nil {
		return err
	}
	email := normalizeEmail(in.Email)
	var note ports.Notification
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		user, err := repos.Users.GetByEmail(ctx, access.VisibleUsers(actor), email)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ObjectNotFound("User", "email", email)
		}
		otp, err := uc.tokens.IssueOTP(ctx, repos.Tokens, user.ID, uc.flows.OTPTTL)
		if err != nil {
			return err
		}
		note = notificationFor(ports.TemplateUpdatePassword, user, "", otp.Value)
		return nil
	})
	if err != nil {
		return domain.Expose(err, "AuthUseCase.RequestPasswordChange", map[string]any{"email": email}, actor.Username)
	}
	uc.Dispatch(ctx, note)
	return nil
}

// ChangePassword cambia la contraseña del actor con un OTP propio.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, actor *entity.User, in dto.ChangePasswordRequest) error {
	if err := access.RequireLogin(actor); err != nil {
		return err
	}
	if !password.Check(actor.PasswordHash, in.OldPassword) {
		return domain.InvalidOldPassword()
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.InvalidPasswords()
	}
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		otp, err := uc.tokens.LookupOTP(ctx, repos.Tokens, in.Token)
		if err != nil {
			return err
		}
		if err := uc.tokens.ValidateOTP(otp, actor.ID); err != nil {
			return err
		}
		if fe := validation.Password("new_password", in.NewPassword); len(fe) > 0 {
			return domain.InvalidValues(fe)
		}
		hash, err := password.Hash(in.NewPassword)
		if err != nil {
			return err
		}
		if err := repos.Users.SetPassword(ctx, actor.ID, hash, uc.tokens.Now()); err != nil {
			return err
		}
		return uc.tokens.ConsumeOTP(ctx, repos.Tokens, otp.Value)
	})
	return domain.Expose(err, "AuthUseCase.ChangePassword", map[string]any{"token": in.Token}, actor.Username)
}

func notificationFor(tpl ports.NotificationTemplate, u *entity.User, link, code string) ports.Notification {
	return ports.Notification{
		Template:  tpl,
		UserID:    u.ID,
		Recipient: u.Email,
		FullName:  u.FullName(),
		Link:      link,
		Code:      code,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
