// Package otel wires OpenTelemetry tracing for the harness binaries.
package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls trace export. It is parsed from DIAGRAM_HARNESS_OTEL_*.
type Config struct {
	Endpoint string `env:"OTEL_ENDPOINT"`
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when the endpoint is empty or Enabled is false, Setup
// returns a no-op shutdown function and no global provider is registered.
// Step spans are still created against the global no-op tracer.
func Setup(ctx context.Context, serviceName string, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !cfg.Enabled || endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
