package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newCapture returns a debug-level JSON logger writing into the buffer.
func newCapture() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return logger, buf
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := newCapture()

	enriched := EnrichLogger(logger, "eval-1", "stage-a", "lazy")
	enriched.Info("doing work")

	out := buf.String()
	assert.Contains(t, out, "eval-1")
	assert.Contains(t, out, "stage-a")
	assert.Contains(t, out, "lazy")
}

func TestEnrichLogger_NilLogger(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "eval-1", "stage-a", "eager"))
}

func TestLogEvalLifecycle(t *testing.T) {
	logger, buf := newCapture()

	LogEvalStart(logger, "eval-1", "nested", "new")
	LogEvalComplete(logger, "eval-1", 12.5, 3, true)

	out := buf.String()
	assert.Contains(t, out, "pipeline evaluation starting")
	assert.Contains(t, out, "pipeline evaluation completed")
	assert.Contains(t, out, "nested")
	assert.Contains(t, out, "eval-1")
}

func TestLogEvalError(t *testing.T) {
	logger, buf := newCapture()

	LogEvalError(logger, "eval-1", errors.New("boom"), 3.0, "stage-b")

	out := buf.String()
	assert.Contains(t, out, "pipeline evaluation failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "stage-b")
}

func TestLogStageLifecycle(t *testing.T) {
	logger, buf := newCapture()

	LogStageStart(logger, "stage-a")
	LogStageComplete(logger, "stage-a", 1.0, false)
	LogStageSkipped(logger, "stage-b", "enabled == true")
	LogStageError(logger, "stage-c", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "stage starting")
	assert.Contains(t, out, "stage completed")
	assert.Contains(t, out, "stage skipped")
	assert.Contains(t, out, "stage failed")
	assert.Contains(t, out, "enabled == true")
}

func TestLogThunkAndEviction(t *testing.T) {
	logger, buf := newCapture()

	LogThunkForce(logger, "_pipe1_double", 0.3)
	LogEviction(logger, "increment", 2)

	out := buf.String()
	assert.Contains(t, out, "thunk forced")
	assert.Contains(t, out, "_pipe1_double")
	assert.Contains(t, out, "bindings evicted")
}

func TestLogFunctions_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogEvalStart(nil, "e", "eager", "new")
		LogEvalComplete(nil, "e", 1, 1, true)
		LogEvalError(nil, "e", errors.New("x"), 1, "s")
		LogStageStart(nil, "s")
		LogStageComplete(nil, "s", 1, true)
		LogStageSkipped(nil, "s", "c")
		LogStageError(nil, "s", errors.New("x"))
		LogThunkForce(nil, "b", 1)
		LogEviction(nil, "s", 1)
	})
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)

	ms := elapsed()
	assert.GreaterOrEqual(t, ms, 0.0)
}
