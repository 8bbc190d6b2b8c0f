// Package tracing wires OpenTelemetry spans around analysis runs.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName  = "github.com/vanshika/muletrace"
	serviceName = "muletrace"
)

// Init installs a global tracer provider exporting over OTLP/gRPC. With an
// empty endpoint the global no-op provider stays in place. The returned
// function flushes and stops the exporter.
func Init(ctx context.Context, endpoint string, logger *slog.Logger) (func(context.Context) error, error) {
	if endpoint == "" {
		logger.Info("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "endpoint", endpoint)
	return tp.Shutdown, nil
}

// StartSpan starts a span on the global provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func RunID(id string) attribute.KeyValue {
	return attribute.String("analysis.run_id", id)
}

func Detector(name string) attribute.KeyValue {
	return attribute.String("analysis.detector", name)
}

func Transactions(n int) attribute.KeyValue {
	return attribute.Int("analysis.transactions", n)
}

func Rings(n int) attribute.KeyValue {
	return attribute.Int("analysis.rings", n)
}
