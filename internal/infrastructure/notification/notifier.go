package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/pkg/config"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

// New construye el proveedor configurado envuelto con métricas.
// reg nil = sin métricas.
func New(cfg config.NotificationConfig, log *logger.Logger, reg prometheus.Registerer) (ports.Notifier, error) {
	var n ports.Notifier
	switch cfg.Provider {
	case "", "log":
		n = NewLogNotifier(log)
	case "noop":
		n = Noop{}
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("notification: NOTIFICATION_WEBHOOK_URL es obligatorio con el proveedor webhook")
		}
		n = NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookToken, &http.Client{Timeout: cfg.Timeout})
	default:
		return nil, fmt.Errorf("notification: proveedor desconocido %q (log | noop | webhook)", cfg.Provider)
	}
	if reg == nil {
		return n, nil
	}
	return NewInstrumented(n, cfg.Provider, reg)
}

// Noop descarta las notificaciones.
type Noop struct{}

func (Noop) Notify(context.Context, ports.Notification) error { return nil }

// LogNotifier escribe la notificación en el log; útil en desarrollo.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notification")}
}

func (n *LogNotifier) Notify(_ context.Context, msg ports.Notification) error {
	ev := n.log.Info().
		Str("template", string(msg.Template)).
		Str("user_id", msg.UserID).
		Str("recipient", msg.Recipient).
		Str("full_name", msg.FullName)
	if msg.Link != "" {
		ev = ev.Str("link", msg.Link)
	}
	if msg.Code != "" {
		ev = ev.Str("code", msg.Code)
	}
	ev.Msg("notificación")
	return nil
}
