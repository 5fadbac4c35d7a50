package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/pkg/config"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

var invite = ports.Notification{
	Template:  ports.TemplateInvite,
	UserID:    "u-1",
	Recipient: "jan@evidenta.cz",
	FullName:  "Jan Novák",
	Link:      "https://app.evidenta.cz/setup-password/abc",
}

func TestWebhook_EnviaJSONConBearer(t *testing.T) {
	var got webhookPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "secret", srv.Client())
	require.NoError(t, n.Notify(context.Background(), invite))

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "invite_message", got.Template)
	assert.Equal(t, "jan@evidenta.cz", got.Recipient)
	assert.Equal(t, invite.Link, got.Context["link"])
	assert.NotContains(t, got.Context, "code")
}

func TestWebhook_ErrorDelServidor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, "", srv.Client()).Notify(context.Background(), invite)
	assert.ErrorContains(t, err, "502")
}

func TestLogNotifier_EscribeEnlace(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.New(logger.Config{Env: "test", Output: &buf}))
	require.NoError(t, n.Notify(context.Background(), invite))
	assert.Contains(t, buf.String(), `"template":"invite_message"`)
	assert.Contains(t, buf.String(), invite.Link)
}

type failing struct{}

func (failing) Notify(context.Context, ports.Notification) error { return errors.New("smtp caído") }

func TestInstrumented_CuentaPorResultado(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok, err := NewInstrumented(Noop{}, "noop", reg)
	require.NoError(t, err)
	bad, err := NewInstrumented(failing{}, "noop", reg)
	require.NoError(t, err)

	require.NoError(t, ok.Notify(context.Background(), invite))
	require.Error(t, bad.Notify(context.Background(), invite))

	assert.Equal(t, 1.0, testutil.ToFloat64(ok.sent.WithLabelValues("noop", "invite_message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ok.sent.WithLabelValues("noop", "invite_message", "error")))
}

func TestNew_Proveedores(t *testing.T) {
	log := logger.Nop()
	n, err := New(config.NotificationConfig{Provider: "noop"}, log, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)

	_, err = New(config.NotificationConfig{Provider: "webhook"}, log, nil)
	assert.Error(t, err)

	_, err = New(config.NotificationConfig{Provider: "sms"}, log, nil)
	assert.Error(t, err)

	n, err = New(config.NotificationConfig{Provider: "log"}, log, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.IsType(t, &Instrumented{}, n)
}
