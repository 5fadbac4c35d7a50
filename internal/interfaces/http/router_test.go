package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jhoicas/evidenta-api/internal/application/auth"
	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/application/usecase"
	"github.com/jhoicas/evidenta-api/internal/application/validation"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/memory"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/metrics"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/redisstore"
	httpRouter "github.com/jhoicas/evidenta-api/internal/interfaces/http"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

const (
	testFrontendURL = "https://app.evidenta.cz"
	testICO         = "25596641"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	sent []ports.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg ports.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) last(t *testing.T) ports.Notification {
	t.Helper()
	require.NotEmpty(t, n.sent, "se esperaba una notificación")
	return n.sent[len(n.sent)-1]
}

type testServer struct {
	app      *fiber.App
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

type serverOption func(*httpRouter.RouterDeps)

// newTestServer levanta la API completa sobre el almacén en memoria con los
// roles sembrados y un usuario base por rol (contraseña "evidenta<rol>123").
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	store := memory.NewStore()
	repos := store.Repositories()
	roleUC := usecase.NewRoleUseCase(store, repos.Roles, log)
	_, err := roleUC.Seed(ctx)
	require.NoError(t, err)
	_, err = roleUC.SeedBaseUsers(ctx, false)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	authUC := auth.NewAuthUseCase(store, repos, notifier, auth.NewTokenService(64, 6),
		auth.JWTConfig{Secret: "router-test-secret", ExpMinutes: 60, Issuer: "evidenta-api", RefreshMinutes: 60},
		auth.FlowConfig{
			FrontendURL:   testFrontendURL,
			InvitationTTL: 7 * 24 * time.Hour,
			ResetTTL:      time.Hour,
			OTPTTL:        10 * time.Minute,
		},
		log,
	)
	v := validation.New()
	m := metrics.New()

	deps := httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    usecase.NewUserUseCase(store, repos, authUC, v),
		CompanyUC: usecase.NewCompanyUseCase(store, repos, v),
		RoleUC:    roleUC,
		Health:    map[string]httpRouter.HealthCheck{},
		Metrics:   m.Handler(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	app := fiber.New(fiber.Config{ErrorHandler: httpRouter.ErrorHandler(log)})
	app.Use(httpRouter.ObservabilityMiddleware(log, noop.NewTracerProvider().Tracer("test"), m))
	httpRouter.Router(app, deps)
	return &testServer{app: app, notifier: notifier, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, login, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: login, Password: password})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "login de %s", login)
	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, resp).ErrorCode
}

func userRequest(username, role string) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		Username:  username,
		FirstName: "jana",
		LastName:  "novakova",
		Email:     username + "@evidenta.cz",
		Role:      role,
	}
}

func companyRequest(users ...string) dto.CreateCompanyRequest {
	return dto.CreateCompanyRequest{
		Name:                 "Evidenta s.r.o.",
		IdentificationNumber: testICO,
		Address1:             "Ulice 1",
		City:                 "Praha",
		ZipCode:              "11000",
		Users:                users,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sistema
// ─────────────────────────────────────────────────────────────────────────────

func TestHealth_SinDependenciasResponde200(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[httpRouter.HealthResponse](t, resp)
	assert.Equal(t, "ok", out.Status)
}

func TestHealth_DependenciaCaidaResponde503(t *testing.T) {
	s := newTestServer(t, func(d *httpRouter.RouterDeps) {
		d.Health = map[string]httpRouter.HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}
	})
	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	out := decode[httpRouter.HealthResponse](t, resp)
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, "ok", out.Checks["database"])
	assert.Equal(t, "connection refused", out.Checks["redis"])
}

func TestDebug_AnonimoYAutenticado(t *testing.T) {
	s := newTestServer(t)

	anon := decode[httpRouter.DebugResponse](t, s.do(t, http.MethodGet, "/debug", "", nil))
	assert.Equal(t, "AnonymousUser", anon.User)
	assert.False(t, anon.IsAuthenticated)

	token := s.login(t, "client", "evidentaclient123")
	me := decode[httpRouter.DebugResponse](t, s.do(t, http.MethodGet, "/debug", token, nil))
	assert.Equal(t, "client", me.User)
	assert.True(t, me.IsAuthenticated)
}

func TestMetrics_ExponeContadoresHTTP(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", nil).Body.Close()

	resp := s.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRutaDesconocida_Responde404ConCodigo(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "route_not_found", errorCode(t, resp))
}

// ─────────────────────────────────────────────────────────────────────────────
// Autenticación
// ─────────────────────────────────────────────────────────────────────────────

func TestLogin_PorUsernameYEmail(t *testing.T) {
	s := newTestServer(t)
	assert.NotEmpty(t, s.login(t, "admin", "evidentaadmin123"))
	assert.NotEmpty(t, s.login(t, "ADMIN@admin.cz", "evidentaadmin123"), "el email no distingue mayúsculas")
}

func TestLogin_CredencialesIncorrectas_Retorna401(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "admin", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "login_required", errorCode(t, resp))
}

func TestLogin_CuerpoIlegible_Retorna400(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", "{no es json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "invalid_values", out.ErrorCode)
	assert.Equal(t, "Invalid request body.", out.Message)
}

func TestMe_SinToken_Retorna401(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "login_required", errorCode(t, resp))
}

func TestMe_TokenInvalidoSeTrataComoAnonimo(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/me", "no.es.un.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestMe_IncluyePermisosDelRol(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "supervisor", "evidentasupervisor123")
	me := decode[dto.UserResponse](t, s.do(t, http.MethodGet, "/api/me", token, nil))
	assert.Equal(t, "supervisor", me.Username)
	assert.Equal(t, "supervisor", me.Role)
	assert.Contains(t, me.Permissions, "add_user")
}

func TestTokens_VerificarRefrescarYRevocar(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "supervisor", "evidentasupervisor123")

	resp := s.do(t, http.MethodPost, "/api/auth/verify", "", dto.TokenRequest{Token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decode[dto.VerifyTokenResponse](t, resp)
	assert.Equal(t, "supervisor", verified.Payload.Username)
	assert.Equal(t, "supervisor", verified.Payload.Role)

	resp = s.do(t, http.MethodPost, "/api/auth/refresh", "", dto.TokenRequest{Token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decode[dto.RefreshTokenResponse](t, resp)
	require.NotEmpty(t, refreshed.Token)
	assert.Equal(t, verified.Payload.OrigIat, refreshed.Payload.OrigIat)
	assert.Greater(t, refreshed.RefreshExpiresIn, refreshed.Payload.OrigIat)

	me := decode[dto.UserResponse](t, s.do(t, http.MethodGet, "/api/me", refreshed.Token, nil))
	assert.Equal(t, "supervisor", me.Username)

	resp = s.do(t, http.MethodPost, "/api/auth/revoke", "", dto.TokenRequest{Token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Greater(t, decode[dto.RevokeTokenResponse](t, resp).Revoked, verified.Payload.OrigIat)

	resp = s.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "el token revocado es anónimo")
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/auth/verify", "", dto.TokenRequest{Token: token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "login_required", errorCode(t, resp))
}

func TestTokens_InvalidoOCuerpoIlegible(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/auth/verify", "/api/auth/refresh", "/api/auth/revoke"} {
		resp := s.do(t, http.MethodPost, path, "", dto.TokenRequest{Token: "no.es.un.jwt"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "login_required", errorCode(t, resp), path)

		resp = s.do(t, http.MethodPost, path, "", "{no es json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestInvitacion_EstablecerPasswordYEntrar(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "supervisor", "evidentasupervisor123")

	resp := s.do(t, http.MethodPost, "/api/users", token, userRequest("jana", "client"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	note := s.notifier.last(t)
	assert.Equal(t, ports.TemplateInvite, note.Template)
	require.True(t, strings.HasPrefix(note.Link, testFrontendURL+"/setup-password/"), note.Link)
	invite := strings.TrimPrefix(note.Link, testFrontendURL+"/setup-password/")

	body := dto.SetPasswordRequest{Token: invite, Password: "Kralovna-Snezna-42", ConfirmPassword: "Kralovna-Snezna-42"}
	resp = s.do(t, http.MethodPost, "/api/auth/set-password", "", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.MessageResponse](t, resp).Ok)

	assert.NotEmpty(t, s.login(t, "jana", "Kralovna-Snezna-42"))

	resp = s.do(t, http.MethodPost, "/api/auth/set-password", "", body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "el token ya fue consumido")
	assert.Equal(t, "object_not_found", errorCode(t, resp))
}

func TestPasswordReset_EmailDesconocidoRespondeIgual(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/auth/password-reset", "", dto.EmailRequest{Email: "nadie@evidenta.cz"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, s.notifier.sent)

	resp = s.do(t, http.MethodPost, "/api/auth/password-reset", "", dto.EmailRequest{Email: "guest@guest.cz"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, ports.TemplateResetPassword, s.notifier.last(t).Template)
}

func TestCambioDePassword_ConOTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "supervisor", "evidentasupervisor123")

	resp := s.do(t, http.MethodPost, "/api/auth/otp", token, dto.EmailRequest{Email: "supervisor@supervisor.cz"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	otp := s.notifier.last(t).Code
	require.Len(t, otp, 6)

	resp = s.do(t, http.MethodPost, "/api/auth/change-password", token, dto.ChangePasswordRequest{
		Token: otp, OldPassword: "incorrecta", NewPassword: "Kralovna-Snezna-42", ConfirmPassword: "Kralovna-Snezna-42",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_old_password", errorCode(t, resp))

	resp = s.do(t, http.MethodPost, "/api/auth/change-password", token, dto.ChangePasswordRequest{
		Token: otp, OldPassword: "evidentasupervisor123", NewPassword: "Kralovna-Snezna-42", ConfirmPassword: "Kralovna-Snezna-42",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.NotEmpty(t, s.login(t, "supervisor", "Kralovna-Snezna-42"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Usuarios y empresas
// ─────────────────────────────────────────────────────────────────────────────

func TestUsuarios_ClienteNoPuedeCrear_Retorna403(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "client", "evidentaclient123")
	resp := s.do(t, http.MethodPost, "/api/users", token, userRequest("petr", "guest"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "permission_required", errorCode(t, resp))
}

func TestUsuarios_ValidacionDevuelveErroresPorCampo(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "evidentaadmin123")
	in := userRequest("petr", "guest")
	in.Email = "no-es-email"
	resp := s.do(t, http.MethodPost, "/api/users", token, in)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "invalid_values", out.ErrorCode)
	assert.Contains(t, toJSON(t, out.ErrorData), "email")
}

func TestUsuarios_CRUDPorAPI(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "evidentaadmin123")

	resp := s.do(t, http.MethodPost, "/api/users", token, userRequest("petr", "guest"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "Jana", created.FirstName, "los nombres se capitalizan")

	got := decode[dto.UserResponse](t, s.do(t, http.MethodGet, "/api/users/"+created.ID, token, nil))
	assert.Equal(t, "petr", got.Username)

	title := "Ing."
	resp = s.do(t, http.MethodPatch, "/api/users/"+created.ID, token, dto.UpdateUserRequest{Title: &title})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ing.", decode[dto.UserResponse](t, resp).Title)

	list := decode[dto.UserListResponse](t, s.do(t, http.MethodGet, "/api/users?search=petr", token, nil))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Total)

	resp = s.do(t, http.MethodDelete, "/api/users/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/users/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "object_not_found", errorCode(t, resp))
}

func TestUsuarios_FiltrosPorCampoYOrden(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "evidentaadmin123")
	usernames := func(path string) []string {
		resp := s.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		list := decode[dto.UserListResponse](t, resp)
		out := make([]string, 0, len(list.Items))
		for _, u := range list.Items {
			out = append(out, u.Username)
		}
		return out
	}

	assert.Equal(t, []string{"supervisor"}, usernames("/api/users?username__icontains=UPER"))
	assert.Equal(t, []string{"guest"}, usernames("/api/users?role__iexact=GUEST"))
	assert.Equal(t, []string{"client"}, usernames("/api/users?email__istartswith=client%40&username__iexact=client"))
	assert.Equal(t, []string{"guest", "client", "accountant"},
		usernames("/api/users?username__icontains=t&order_by=-username"))

	resp := s.do(t, http.MethodGet, "/api/users?username__regex=x", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "invalid_values", out.ErrorCode)
	assert.Contains(t, toJSON(t, out.ErrorData), "username__regex")
}

func TestUsuarios_IDNoUUID_Retorna404(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "evidentaadmin123")
	resp := s.do(t, http.MethodGet, "/api/users/no-existe", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "object_not_found", errorCode(t, resp))
}

func TestEmpresas_VisibilidadPorPertenencia(t *testing.T) {
	s := newTestServer(t)
	sup := s.login(t, "supervisor", "evidentasupervisor123")
	me := decode[dto.UserResponse](t, s.do(t, http.MethodGet, "/api/me", sup, nil))

	resp := s.do(t, http.MethodPost, "/api/companies", sup, companyRequest(me.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	company := decode[dto.CompanyResponse](t, resp)
	assert.Equal(t, []string{me.ID}, company.Users)

	got := decode[dto.CompanyResponse](t, s.do(t, http.MethodGet, "/api/companies/"+company.ID, sup, nil))
	assert.Equal(t, testICO, got.IdentificationNumber)

	client := s.login(t, "client", "evidentaclient123")
	resp = s.do(t, http.MethodGet, "/api/companies/"+company.ID, client, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "un cliente sin pertenencia no ve la empresa")
	resp.Body.Close()

	list := decode[dto.CompanyListResponse](t, s.do(t, http.MethodGet, "/api/companies", client, nil))
	assert.Empty(t, list.Items)

	resp = s.do(t, http.MethodPost, "/api/companies", sup, companyRequest())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "el IČO ya existe")
	assert.Contains(t, toJSON(t, decode[dto.ErrorResponse](t, resp).ErrorData), "unique")

	resp = s.do(t, http.MethodDelete, "/api/companies/"+company.ID, sup, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRoles_ListaRequiereSesion(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/roles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token := s.login(t, "guest", "evidentaguest123")
	roles := decode[[]dto.RoleResponse](t, s.do(t, http.MethodGet, "/api/roles", token, nil))
	require.Len(t, roles, 5)
	assert.Equal(t, "guest", roles[0].Name)
}

// ─────────────────────────────────────────────────────────────────────────────
// Rate limit
// ─────────────────────────────────────────────────────────────────────────────

func TestRateLimit_Login429TrasElMaximo(t *testing.T) {
	s := newTestServer(t, func(d *httpRouter.RouterDeps) {
		d.RateLimit = httpRouter.RateLimits{Enabled: true, Max: 2, Window: time.Minute}
	})
	for i := 0; i < 2; i++ {
		resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "admin", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "admin", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "too_many_requests", out.ErrorCode)
	assert.Equal(t, "Request was throttled.", out.Message)
}

func TestRateLimit_CompartidoEnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	storage, err := redisstore.New("redis://"+mr.Addr(), "limiter:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	// dos instancias de la API comparten el contador
	opt := func(d *httpRouter.RouterDeps) {
		d.RateLimit = httpRouter.RateLimits{Enabled: true, Max: 1, Window: time.Minute, Storage: storage}
	}
	a := newTestServer(t, opt)
	b := newTestServer(t, opt)

	resp := a.do(t, http.MethodPost, "/api/auth/password-reset", "", dto.EmailRequest{Email: "x@evidenta.cz"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = b.do(t, http.MethodPost, "/api/auth/password-reset", "", dto.EmailRequest{Email: "x@evidenta.cz"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
