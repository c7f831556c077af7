// Package thunk provides force-once deferred computations for the pipeline
// evaluator.
//
// A Thunk captures a computation (and, through its closure, whatever scope
// the computation needs) and runs it at most once. The first Force runs the
// computation and memoizes the result; every later Force returns the
// memoized value without re-running anything. A Force that fails poisons the
// thunk: the computation is discarded and every later Force re-raises the
// same error rather than returning a partial value.
//
// Forcing is an explicit, observable operation so that single-evaluation and
// cleanup timing are testable. Nothing in this package relies on implicit
// language-level laziness.
//
// Thunks are owned by a single evaluation and are not safe for concurrent
// use.
package thunk

import (
	"context"
	"errors"
	"fmt"
)

// State is the lifecycle state of a thunk.
type State int

// Thunk states.
const (
	// Unforced means the computation has not run yet.
	Unforced State = iota

	// Forced means the computation ran successfully and the result is
	// memoized.
	Forced

	// Failed means a Force raised an error. The thunk is poisoned and
	// re-raises the same error on every later Force.
	Failed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Unforced:
		return "unforced"
	case Forced:
		return "forced"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrEvictUnforced is returned when Evict is called on a thunk that has not
// been forced. Evicting an unforced thunk would destroy the computation
// before it ever ran, which breaks laziness; the caller has a bug.
var ErrEvictUnforced = errors.New("cannot evict unforced thunk")

// Compute is the captured computation of a thunk.
type Compute func(ctx context.Context) (any, error)

// Deferred is the stage-facing handle to a deferred value. Stages that
// declare lazy arguments receive Deferred handles and decide themselves
// whether to force them.
type Deferred interface {
	// Force runs the computation if it has not run yet and returns the
	// memoized result. After a failed Force it re-raises the original
	// error.
	Force(ctx context.Context) (any, error)

	// Forced reports whether the value has been successfully computed.
	Forced() bool
}

// Thunk is a deferred computation with at-most-once forcing and memoization.
//
// The zero value is not usable; create thunks with New or Resolved.
type Thunk struct {
	compute Compute
	dep     *Thunk
	state   State
	value   any
	err     error
	evicted bool

	// onForced, when set, runs after each successful force. The evaluator
	// uses it to drive eviction of already-forced thunks.
	onForced func(*Thunk)
}

// New creates an unforced thunk around the given computation.
func New(compute Compute) *Thunk {
	if compute == nil {
		panic("thunk: compute cannot be nil")
	}
	return &Thunk{compute: compute}
}

// Resolved creates a thunk that is already forced to the given value.
// Forcing it returns the value without running anything.
func Resolved(v any) *Thunk {
	return &Thunk{state: Forced, value: v}
}

// SetDep records the upstream thunk this computation will force for its
// first demanded input. Force uses the dependency chain to force linear
// pipelines iteratively instead of recursing, so call-stack growth stays
// constant in chain length.
//
// Leave the dependency unset for computations that do not force their
// upstream (lazy-argument stages); the chain walk stops there, which is
// exactly what keeps the upstream unforced.
func (t *Thunk) SetDep(dep *Thunk) {
	t.dep = dep
}

// Dep returns the recorded upstream dependency, or nil.
func (t *Thunk) Dep() *Thunk {
	return t.dep
}

// OnForced registers a callback invoked after each successful force of this
// thunk.
func (t *Thunk) OnForced(fn func(*Thunk)) {
	t.onForced = fn
}

// State returns the current lifecycle state.
func (t *Thunk) State() State {
	return t.state
}

// Forced reports whether the thunk holds a memoized value.
func (t *Thunk) Forced() bool {
	return t.state == Forced
}

// Evicted reports whether the captured computation has been released.
func (t *Thunk) Evicted() bool {
	return t.evicted
}

// Force returns the thunk's value, running the captured computation on the
// first call. Unforced dependencies are forced first, oldest to newest,
// using an explicit worklist rather than recursion.
func (t *Thunk) Force(ctx context.Context) (any, error) {
	switch t.state {
	case Forced:
		return t.value, nil
	case Failed:
		return nil, t.err
	}

	// Walk the unforced dependency chain and force it bottom-up. The
	// chain lives on the heap, so a pipeline of any length forces at
	// constant call-stack depth.
	var chain []*Thunk
	for cur := t.dep; cur != nil && cur.state == Unforced; cur = cur.dep {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if _, err := chain[i].forceSelf(ctx); err != nil {
			return nil, err
		}
	}

	return t.forceSelf(ctx)
}

// forceSelf runs this thunk's own computation, assuming dependencies are
// settled.
func (t *Thunk) forceSelf(ctx context.Context) (any, error) {
	switch t.state {
	case Forced:
		return t.value, nil
	case Failed:
		return nil, t.err
	}

	v, err := t.compute(ctx)
	if err != nil {
		// Poison: later references re-raise, never return a partial
		// value.
		t.state = Failed
		t.err = err
		t.compute = nil
		t.dep = nil
		return nil, err
	}

	t.state = Forced
	t.value = v
	t.compute = nil
	if t.onForced != nil {
		t.onForced(t)
	}
	return v, nil
}

// Evict releases the captured computation and dependency pointer while
// keeping the memoized value retrievable. Evicting lets everything the
// computation's closure held (notably its defining scope) be collected.
//
// Evict is idempotent on forced thunks and returns ErrEvictUnforced for
// thunks that have not run.
func (t *Thunk) Evict() error {
	if t.state == Unforced {
		return fmt.Errorf("%w (state %s)", ErrEvictUnforced, t.state)
	}
	t.compute = nil
	t.dep = nil
	t.onForced = nil
	t.evicted = true
	return nil
}
