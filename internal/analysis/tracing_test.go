package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vanshika/muletrace/internal/detection"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func spansByName(rec *tracetest.SpanRecorder) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range rec.Ended() {
		out[s.Name()] = s
	}
	return out
}

func TestEngine_EmitsSpans(t *testing.T) {
	rec := recordSpans(t)

	_, err := New(DefaultOptions(), nil).Analyze(context.Background(), Input{Transactions: triangle()})
	require.NoError(t, err)

	spans := spansByName(rec)
	require.Contains(t, spans, "analysis.Analyze")
	for _, name := range []string{"detection.cycle", "detection.smurfing", "detection.shell"} {
		require.Contains(t, spans, name)
		assert.Equal(t, spans["analysis.Analyze"].SpanContext().SpanID(), spans[name].Parent().SpanID())
	}
}

func TestEngine_FailedDetectorSpanHasErrorStatus(t *testing.T) {
	rec := recordSpans(t)

	e := newEngine([]detection.Detector{stubDetector{name: "broken", err: errors.New("disk on fire")}}, nil)
	_, err := e.Analyze(context.Background(), Input{Transactions: triangle()})
	require.Error(t, err)

	spans := spansByName(rec)
	require.Contains(t, spans, "detection.broken")
	assert.Equal(t, codes.Error, spans["detection.broken"].Status().Code)
	assert.Equal(t, codes.Error, spans["analysis.Analyze"].Status().Code)
}
