package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var _ MetricsRecorder = NoopMetrics{}
}

func TestNoopMetrics_NeverPanics(t *testing.T) {
	m := NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordStageExecution(context.Background(), "stage", 100*time.Millisecond, nil)
		m.RecordStageExecution(context.Background(), "stage", 0, errors.New("boom"))
		m.RecordStageExecution(nil, "", 0, nil)
		m.RecordEvalRun(context.Background(), "lazy", true, time.Second)
		m.RecordEvalRun(nil, "", false, 0)
		m.RecordThunkForce(context.Background(), "_pipe1_a")
		m.RecordEviction(context.Background(), "stage", 3)
	})
}

func TestNoopSpanManager_ImplementsInterface(t *testing.T) {
	var _ SpanManager = NoopSpanManager{}
}

func TestNoopSpanManager_NeverPanics(t *testing.T) {
	m := NoopSpanManager{}

	assert.NotPanics(t, func() {
		ctx, span := m.StartEvalSpan(context.Background(), "eager", "eval-1")
		assert.NotNil(t, ctx)
		m.EndSpanWithError(span, nil)
		m.EndSpanWithError(span, errors.New("boom"))

		ctx, span = m.StartStageSpan(context.Background(), "stage-a")
		assert.NotNil(t, ctx)
		m.EndSpanWithError(span, nil)

		m.AddSpanEvent(context.Background(), "event", attribute.String("k", "v"))
	})
}

func TestNoopSpanManager_PreservesContext(t *testing.T) {
	m := NoopSpanManager{}

	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "value")

	ctx, _ := m.StartEvalSpan(parent, "lazy", "eval-1")
	assert.Equal(t, "value", ctx.Value(key{}))

	ctx, _ = m.StartStageSpan(parent, "stage")
	assert.Equal(t, "value", ctx.Value(key{}))
}
