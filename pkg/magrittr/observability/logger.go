// Package observability provides structured logging, metrics, and tracing
// for pipeline evaluation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds evaluation context to a logger.
// Returns a new logger with eval_id, stage_id, and strategy fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "eval-123", "double", "lazy")
//	enriched.Info("doing work") // includes eval_id, stage_id, strategy
func EnrichLogger(logger *slog.Logger, evalID, stageID, strategy string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("eval_id", evalID),
		slog.String("stage_id", stageID),
		slog.String("strategy", strategy),
	)
}

// LogEvalStart logs the start of a pipeline evaluation.
func LogEvalStart(logger *slog.Logger, evalID, strategy, scopeKind string) {
	if logger == nil {
		return
	}
	logger.Info("pipeline evaluation starting",
		slog.String("eval_id", evalID),
		slog.String("strategy", strategy),
		slog.String("scope_kind", scopeKind),
	)
}

// LogEvalComplete logs successful evaluation completion.
func LogEvalComplete(logger *slog.Logger, evalID string, durationMs float64, stageCount int, visible bool) {
	if logger == nil {
		return
	}
	logger.Info("pipeline evaluation completed",
		slog.String("eval_id", evalID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("stages_executed", stageCount),
		slog.Bool("visible", visible),
	)
}

// LogEvalError logs evaluation failure.
func LogEvalError(logger *slog.Logger, evalID string, err error, durationMs float64, lastStage string) {
	if logger == nil {
		return
	}
	logger.Error("pipeline evaluation failed",
		slog.String("eval_id", evalID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_stage", lastStage),
	)
}

// LogStageStart logs stage execution start.
func LogStageStart(logger *slog.Logger, stageID string) {
	if logger == nil {
		return
	}
	logger.Debug("stage starting",
		slog.String("stage_id", stageID),
	)
}

// LogStageComplete logs successful stage completion.
func LogStageComplete(logger *slog.Logger, stageID string, durationMs float64, visible bool) {
	if logger == nil {
		return
	}
	logger.Debug("stage completed",
		slog.String("stage_id", stageID),
		slog.Float64("duration_ms", durationMs),
		slog.Bool("visible", visible),
	)
}

// LogStageSkipped logs a stage whose guard condition was false.
func LogStageSkipped(logger *slog.Logger, stageID, condition string) {
	if logger == nil {
		return
	}
	logger.Debug("stage skipped",
		slog.String("stage_id", stageID),
		slog.String("condition", condition),
	)
}

// LogStageError logs stage execution error.
func LogStageError(logger *slog.Logger, stageID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("stage failed",
		slog.String("stage_id", stageID),
		slog.String("error", err.Error()),
	)
}

// LogThunkForce logs a deferred binding being forced.
func LogThunkForce(logger *slog.Logger, binding string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("thunk forced",
		slog.String("binding", binding),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEviction logs forced-thunk eviction after a stage.
func LogEviction(logger *slog.Logger, stageID string, evicted int) {
	if logger == nil {
		return
	}
	logger.Debug("bindings evicted",
		slog.String("stage_id", stageID),
		slog.Int("evicted", evicted),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
