package magrittr

import (
	"log/slog"

	"github.com/adamchanging1/magrittr/pkg/magrittr/observability"
	"github.com/adamchanging1/magrittr/pkg/magrittr/thunk"
)

// cleanupManager evicts forced lazy bindings as evaluation advances, so a
// long pipeline never keeps its whole chain of intermediate values (and
// the closures referencing them) resident. Each time a stage's thunk is
// forced, every already-forced tracked thunk behind it becomes evictable.
type cleanupManager struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	ctx     Context

	tracked []trackedThunk
}

type trackedThunk struct {
	binding string
	t       *thunk.Thunk
}

func newCleanupManager(logger *slog.Logger, metrics observability.MetricsRecorder, ctx Context) *cleanupManager {
	return &cleanupManager{logger: logger, metrics: metrics, ctx: ctx}
}

// track registers a lazy stage binding for eviction once it has been
// forced. Registration order is pipeline order.
func (cm *cleanupManager) track(binding string, t *thunk.Thunk) {
	cm.tracked = append(cm.tracked, trackedThunk{binding: binding, t: t})
}

// sweep evicts every tracked thunk that is forced but not yet evicted,
// attributing the pass to the stage whose force triggered it. Unforced
// thunks are left alone: evicting them would destroy computations that
// may still be demanded.
func (cm *cleanupManager) sweep(stageID string) {
	evicted := 0
	for _, tr := range cm.tracked {
		if !tr.t.Forced() || tr.t.Evicted() {
			continue
		}
		if err := tr.t.Evict(); err != nil {
			continue
		}
		cm.metrics.RecordEviction(cm.ctx, stageID, 1)
		evicted++
	}
	if evicted > 0 {
		observability.LogEviction(cm.logger, stageID, evicted)
	}
}

// sweepAll runs a final pass at the end of evaluation. Failed thunks stay
// poisoned and keep their error; only forced ones are evicted.
func (cm *cleanupManager) sweepAll() {
	cm.sweep("")
}
