package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
)

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	t.Parallel()
	l := NewNoopLogger()
	assert.NotPanics(t, func() {
		l.Debug(context.Background(), "debug", "k", "v")
		l.Info(context.Background(), "info")
		l.Warn(context.Background(), "warn")
		l.Error(context.Background(), "error")
	})
}

func TestNoopMetricsDiscardsEverything(t *testing.T) {
	t.Parallel()
	m := NewNoopMetrics()
	assert.NotPanics(t, func() {
		m.IncCounter("c", 1, "tag", "v")
		m.RecordTimer("t", time.Second)
		m.RecordGauge("g", 1.5)
	})
}

func TestNoopTracerProducesUsableSpans(t *testing.T) {
	t.Parallel()
	tr := NewNoopTracer()
	ctx, span := tr.Start(context.Background(), "op")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.AddEvent("e")
		span.SetStatus(codes.Ok, "done")
		span.RecordError(nil)
		span.End()
	})
	assert.NotNil(t, tr.Span(ctx))
}
