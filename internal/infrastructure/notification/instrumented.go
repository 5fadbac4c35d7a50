package notification

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
)

// Instrumented cuenta envíos por plantilla y resultado, y mide su duración.
type Instrumented struct {
	next     ports.Notifier
	provider string
	sent     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewInstrumented(next ports.Notifier, provider string, reg prometheus.Registerer) (*Instrumented, error) {
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notificaciones entregadas por plantilla y resultado",
	}, []string{"provider", "template", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_duration_seconds",
		Help:    "Duración de la entrega de notificaciones",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	var err error
	if sent, err = register(reg, sent); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Instrumented{next: next, provider: provider, sent: sent, duration: duration}, nil
}

func (i *Instrumented) Notify(ctx context.Context, n ports.Notification) error {
	start := time.Now()
	err := i.next.Notify(ctx, n)
	i.duration.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.sent.WithLabelValues(i.provider, string(n.Template), result).Inc()
	return err
}

// register reutiliza el colector si ya estaba registrado.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
