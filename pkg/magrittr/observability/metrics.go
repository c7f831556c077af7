package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records pipeline evaluation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStageExecution records a stage execution with its duration and error status.
	RecordStageExecution(ctx context.Context, stageID string, duration time.Duration, err error)

	// RecordEvalRun records a pipeline evaluation completion.
	RecordEvalRun(ctx context.Context, strategy string, success bool, duration time.Duration)

	// RecordThunkForce records a deferred binding being forced.
	RecordThunkForce(ctx context.Context, binding string)

	// RecordEviction records forced-thunk evictions after a stage.
	RecordEviction(ctx context.Context, stageID string, count int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stageExecutions metric.Int64Counter
	stageLatency    metric.Float64Histogram
	stageErrors     metric.Int64Counter
	evalRuns        metric.Int64Counter
	evalLatency     metric.Float64Histogram
	thunkForces     metric.Int64Counter
	evictions       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("magrittr")

	stageExecutions, err := meter.Int64Counter("magrittr.stage.executions",
		metric.WithDescription("Number of stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageLatency, err := meter.Float64Histogram("magrittr.stage.latency_ms",
		metric.WithDescription("Stage execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter("magrittr.stage.errors",
		metric.WithDescription("Number of stage execution errors"),
	)
	if err != nil {
		return nil, err
	}

	evalRuns, err := meter.Int64Counter("magrittr.eval.runs",
		metric.WithDescription("Number of pipeline evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("magrittr.eval.latency_ms",
		metric.WithDescription("Pipeline evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	thunkForces, err := meter.Int64Counter("magrittr.thunk.forces",
		metric.WithDescription("Number of deferred bindings forced"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter("magrittr.bindings.evicted",
		metric.WithDescription("Number of forced thunks evicted"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		stageExecutions: stageExecutions,
		stageLatency:    stageLatency,
		stageErrors:     stageErrors,
		evalRuns:        evalRuns,
		evalLatency:     evalLatency,
		thunkForces:     thunkForces,
		evictions:       evictions,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStageExecution records a stage execution.
func (m *otelMetrics) RecordStageExecution(ctx context.Context, stageID string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("stage_id", stageID),
	}

	m.stageExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stageLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.stageErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordEvalRun records a pipeline evaluation.
func (m *otelMetrics) RecordEvalRun(ctx context.Context, strategy string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("strategy", strategy),
		attribute.Bool("success", success),
	}
	m.evalRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordThunkForce records a deferred binding being forced.
func (m *otelMetrics) RecordThunkForce(ctx context.Context, binding string) {
	m.thunkForces.Add(ctx, 1, metric.WithAttributes(
		attribute.String("binding", binding),
	))
}

// RecordEviction records forced-thunk evictions after a stage.
func (m *otelMetrics) RecordEviction(ctx context.Context, stageID string, count int64) {
	if count == 0 {
		return
	}
	m.evictions.Add(ctx, count, metric.WithAttributes(
		attribute.String("stage_id", stageID),
	))
}
