// Package tracer wires the OTLP trace exporter behind a config switch.
package tracer

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"portfolio-chat-be/internal/config"
)

const serviceName = "portfolio-chat-backend"

// noopShutdown stands in when tracing is off or the exporter failed, so
// callers always get a shutdown func to defer.
func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider the otelfiber middleware reads.
// A disabled config gets a no-op shutdown; an exporter failure degrades to
// one as well, rather than blocking startup on an unreachable collector.
func Init(cfg config.TracingConfig) func(context.Context) error {
	if !cfg.Enabled {
		return noopShutdown
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: OTLP exporter init failed, tracing disabled: %v", err)
		return noopShutdown
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	log.Printf("✅ Tracing enabled, exporting to %s", cfg.Endpoint)

	return tp.Shutdown
}
