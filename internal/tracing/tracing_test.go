package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vanshika/muletrace/internal/logging"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_SetsAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "analysis.Analyze", RunID("run-1"), Transactions(3))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "analysis.Analyze", ended[0].Name())
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("analysis.run_id", "run-1"),
		attribute.Int("analysis.transactions", 3),
	}, ended[0].Attributes())
}
