package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/evidenta-api/pkg/config"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

const tracerName = "github.com/jhoicas/evidenta-api"

// Shutdown vacía y cierra el exportador.
type Shutdown func(context.Context) error

// Setup instala el TracerProvider global con exportador OTLP/gRPC.
// Sin endpoint no se exporta nada y Shutdown es un no-op.
func Setup(ctx context.Context, cfg config.TelemetryConfig, serviceName, env string, log *logger.Logger) Shutdown {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("otel: no se pudo crear el exportador")
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(env),
	))
	if err != nil {
		log.Warn().Err(err).Msg("otel: recurso incompleto")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("otel: trazas activadas")
	return provider.Shutdown
}

// Tracer tracer de la aplicación sobre el provider global.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
