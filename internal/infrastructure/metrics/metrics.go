package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics registro propio de la aplicación (no el global) y sus colectores.
type Metrics struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tokensPurged  prometheus.Counter
	cleanupErrors prometheus.Counter
}

// New registra los colectores de proceso, runtime y HTTP.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de peticiones HTTP",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_tokens_purged_total",
			Help: "Tokens y OTP caducados eliminados por la limpieza programada",
		}),
		cleanupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_cleanup_errors_total",
			Help: "Ejecuciones fallidas de la limpieza de tokens",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.tokensPurged, m.cleanupErrors,
	)
	return m
}

// ObserveRequest route es la plantilla de la ruta, no la URL, para acotar cardinalidad.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TokensPurged suma n filas borradas por la limpieza.
func (m *Metrics) TokensPurged(n int64) {
	m.tokensPurged.Add(float64(n))
}

// CleanupFailed cuenta una ejecución fallida.
func (m *Metrics) CleanupFailed() {
	m.cleanupErrors.Inc()
}

// Handler exposición en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
