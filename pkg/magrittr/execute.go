package magrittr

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamchanging1/magrittr/pkg/magrittr/expr"
	"github.com/adamchanging1/magrittr/pkg/magrittr/observability"
	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
	"github.com/adamchanging1/magrittr/pkg/magrittr/thunk"
	"github.com/adamchanging1/magrittr/pkg/magrittr/unwind"
)

// Run evaluates the pipeline with the given initial value.
// Returns the final value paired with its visibility flag, and any error.
//
// Evaluation flow:
//  1. Select the execution scope per the compiled scope kind
//  2. Bind the placeholder to the initial value
//  3. Expand and execute the stages per the compiled strategy
//  4. Contain unwind signals targeting this evaluation's boundary
//  5. Tear down every binding the engine introduced, on every exit path
//
// A pipeline compiled with ScopeCurrent requires WithCallerScope; the
// caller's scope is borrowed, mutated in place by the placeholder swap,
// and restored exactly on exit. ScopeNew and ScopeClosure evaluate in a
// fresh child of the pipeline's lexical scope that is discarded afterward.
//
// Example:
//
//	ctx := magrittr.NewContext(context.Background())
//	result, err := compiled.Run(ctx, 5)
//	if err == nil && result.Visible {
//	    fmt.Println(result.Value)
//	}
func (cp *CompiledPipeline) Run(ctx Context, initial Value, opts ...RunOption) (Result, error) {
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cp.runIn(ctx, initial, &cfg)
}

// runIn evaluates with a resolved configuration. Closure.Call comes in
// here too, so closure-kind pipelines share the new-scope path.
func (cp *CompiledPipeline) runIn(ctx Context, initial Value, cfg *runConfig) (res Result, runErr error) {
	ec := adopt(ctx)

	if cfg.evalID != "" {
		ec = &evalContext{
			Context:  ec.Context,
			logger:   ec.logger,
			evalID:   cfg.evalID,
			boundary: ec.boundary,
			scope:    ec.scope,
		}
	}
	if cfg.logger == nil {
		cfg.logger = ec.Logger()
	}
	evalID := ec.EvalID()

	// Scope selection
	var (
		sc       *scope.Scope
		boundary unwind.Boundary
	)
	switch cp.scopeKind {
	case ScopeCurrent:
		if cfg.callerScope == nil {
			return Result{}, ErrCallerScopeRequired
		}
		sc = cfg.callerScope
	default:
		sc = cp.lexical.Child()
		boundary = unwind.NewBoundary()
		ec = ec.withBoundary(boundary)
	}
	ec = ec.withScope(sc)

	ev := &evaluator{
		cp:         cp,
		cfg:        cfg,
		ctx:        ec,
		tracingCtx: ec,
		sc:         sc,
		visible:    true,
	}
	if cp.strategy == StrategyLazy && cfg.evictionOn {
		ev.cleanup = newCleanupManager(cfg.logger, cfg.metrics, ec)
	}

	// Placeholder binding and teardown. The caller's scope is restored
	// name by name; an engine-created scope just falls out of use.
	if cp.scopeKind == ScopeCurrent {
		restore := sc.Swap(cp.placeholder, initial)
		defer func() {
			for _, name := range ev.introduced {
				if b, ok := sc.Local(name); ok && b.EngineOwned() {
					sc.Remove(name)
				}
			}
			restore()
		}()
	} else {
		sc.DefineOwned(cp.placeholder, initial)
	}

	startTime := time.Now()
	observability.LogEvalStart(cfg.logger, evalID, cp.strategy.String(), cp.scopeKind.String())

	var evalSpan trace.Span
	if cfg.tracingEnabled {
		ev.tracingCtx, evalSpan = cfg.spans.StartEvalSpan(ec, cp.strategy.String(), evalID)
		defer func() {
			cfg.spans.EndSpanWithError(evalSpan, runErr)
		}()
	}

	var val Value
	switch {
	case len(cp.stages) == 1:
		// A one-stage pipeline evaluates the stage directly against the
		// initial value; no expansion needed under any strategy.
		val, runErr = ev.invoke(cp.stages[0], phSource{
			value:    func() (Value, error) { return initial, nil },
			deferred: func() thunk.Deferred { return thunk.Resolved(initial) },
		})
	case cp.strategy == StrategyNested:
		val, runErr = ev.evalNested(initial, len(cp.stages)-1)
	case cp.strategy == StrategyLazy:
		val, runErr = ev.evalLazy(initial)
	default:
		val, runErr = ev.evalEager(initial)
	}

	// A signal aimed at this evaluation's boundary terminates it with the
	// carried value; signals for outer boundaries keep propagating.
	if runErr != nil {
		if sig, ok := unwind.AsSignal(runErr); ok && !boundary.IsZero() && sig.Boundary == boundary {
			val, runErr = sig.Value, nil
			ev.visible = true
		}
	}

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordEvalRun(ec, cp.strategy.String(), runErr == nil, duration)

	if runErr != nil {
		observability.LogEvalError(cfg.logger, evalID, runErr, durationMs, ev.lastStage)
		return Result{}, runErr
	}

	observability.LogEvalComplete(cfg.logger, evalID, durationMs, ev.stageCount, ev.visible)
	return Result{Value: val, Visible: ev.visible}, nil
}

// evaluator carries the state of one evaluation.
type evaluator struct {
	cp         *CompiledPipeline
	cfg        *runConfig
	ctx        *evalContext
	tracingCtx context.Context
	sc         *scope.Scope
	cleanup    *cleanupManager

	visible    bool
	depth      int
	stageCount int
	lastStage  string

	// introduced records engine bindings added to a borrowed caller scope,
	// so teardown removes exactly those.
	introduced []string
}

// phSource supplies a stage's upstream value. The two accessors embody the
// strategy: value forces the upstream, deferred hands it over unforced.
type phSource struct {
	value    func() (Value, error)
	deferred func() thunk.Deferred
}

// evalEager executes the stages left to right, each consuming the
// previous stage's forced result. Constant call-stack depth regardless of
// pipeline length.
func (ev *evaluator) evalEager(initial Value) (Value, error) {
	cur := initial
	for _, st := range ev.cp.stages {
		v := cur
		out, err := ev.invoke(st, phSource{
			value:    func() (Value, error) { return v, nil },
			deferred: func() thunk.Deferred { return thunk.Resolved(v) },
		})
		if err != nil {
			return nil, err
		}
		cur = out
	}
	return cur, nil
}

// evalNested evaluates the expansion rooted at stage index i. Each
// placeholder reference of a stage re-evaluates the entire upstream
// chain, so a stage with k references runs its upstream k times. Depth is
// metered against the run's maximum; eager or lazy expansion avoids the
// limit entirely.
func (ev *evaluator) evalNested(initial Value, i int) (Value, error) {
	if i < 0 {
		return initial, nil
	}

	st := ev.cp.stages[i]

	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > ev.cfg.maxDepth {
		return nil, &DepthError{Max: ev.cfg.maxDepth, StageID: st.id}
	}

	return ev.invoke(st, phSource{
		value: func() (Value, error) { return ev.evalNested(initial, i-1) },
		deferred: func() thunk.Deferred {
			return thunk.New(func(context.Context) (any, error) {
				return ev.evalNested(initial, i-1)
			})
		},
	})
}

// evalLazy builds one thunk per stage, each closing over its upstream
// thunk, binds them in the execution scope, and forces only the last. The
// dependency chain makes the cascade of forces iterative, and memoization
// guarantees each stage runs at most once no matter how many downstream
// references demand it.
func (ev *evaluator) evalLazy(initial Value) (Value, error) {
	prev := thunk.Resolved(initial)

	for i, st := range ev.cp.stages {
		st := st
		upstream := prev
		name := ev.cp.bindingNames[i]

		t := thunk.New(func(context.Context) (any, error) {
			start := time.Now()
			v, err := ev.invoke(st, phSource{
				value:    func() (Value, error) { return upstream.Force(ev.ctx) },
				deferred: func() thunk.Deferred { return upstream },
			})
			if err == nil {
				ev.cfg.metrics.RecordThunkForce(ev.ctx, name)
				observability.LogThunkForce(ev.cfg.logger, name,
					float64(time.Since(start).Milliseconds()))
			}
			return v, err
		})

		// A lazy-args stage decides itself whether to force its upstream,
		// so the chain walk must stop at it.
		if !st.lazyArgs {
			t.SetDep(upstream)
		}

		ev.sc.DefineDeferredOwned(name, t)
		ev.introduced = append(ev.introduced, name)

		if ev.cleanup != nil {
			ev.cleanup.track(name, t)
			t.OnForced(func(*thunk.Thunk) {
				ev.cleanup.sweep(st.id)
			})
		}

		prev = t
	}

	v, err := prev.Force(ev.ctx)

	if ev.cleanup != nil {
		ev.cleanup.sweepAll()
	}

	if err != nil {
		return nil, err
	}
	return v, nil
}

// bindPlaceholder points the scope-visible placeholder at the stage's
// upstream value without forcing it, so guards and expression slots read
// what the stage itself receives.
func (ev *evaluator) bindPlaceholder(ph phSource) {
	ev.sc.DefineDeferredOwned(ev.cp.placeholder, thunk.New(func(context.Context) (any, error) {
		return ph.value()
	}))
}

// invoke runs a single stage: guard check, argument resolution, the call
// itself with panic recovery, then visibility and tee handling.
func (ev *evaluator) invoke(st *Stage, ph phSource) (Value, error) {
	ev.bindPlaceholder(ph)

	if st.when != "" {
		pass, err := ev.guardPasses(st)
		if err != nil {
			return nil, err
		}
		if !pass {
			// A skipped stage passes the upstream through untouched and
			// leaves the visibility flag where the last executed stage
			// put it.
			observability.LogStageSkipped(ev.cfg.logger, st.id, st.when)
			return ph.value()
		}
	}

	stageCtx := ev.ctx.withStageID(st.id)

	observability.LogStageStart(ev.cfg.logger, st.id)

	var stageSpan trace.Span
	stageTracingCtx := ev.tracingCtx
	if ev.cfg.tracingEnabled {
		stageTracingCtx, stageSpan = ev.cfg.spans.StartStageSpan(ev.tracingCtx, st.id)
	}

	start := time.Now()

	var upstream Value
	haveUpstream := false

	out, err := func() (result Value, stageErr error) {
		args := make([]Value, 0, len(st.args))
		for _, a := range st.args {
			switch a.kind {
			case argPlaceholder:
				if st.lazyArgs {
					args = append(args, ph.deferred())
					continue
				}
				v, verr := ph.value()
				if verr != nil {
					// Upstream failure: already attributed to its own
					// stage, propagate unwrapped.
					return nil, verr
				}
				upstream, haveUpstream = v, true
				// Pin the forced value: nested expansion may have rebound
				// the name while evaluating the upstream chain.
				ev.sc.DefineOwned(ev.cp.placeholder, v)
				args = append(args, v)

			case argLiteral:
				args = append(args, a.literal)

			case argRef:
				v, rerr := ev.sc.Resolve(stageCtx, a.name)
				if rerr != nil {
					return nil, &StageError{StageID: st.id, Op: "resolve", Err: rerr}
				}
				args = append(args, v)

			case argExpr:
				v, rerr := ev.resolveExpr(stageCtx, a.src)
				if rerr != nil {
					return nil, &StageError{StageID: st.id, Op: "resolve", Err: rerr}
				}
				args = append(args, v)
			}
		}

		defer func() {
			if r := recover(); r != nil {
				result = nil
				stageErr = &PanicError{
					StageID: st.id,
					Value:   r,
					Stack:   string(debug.Stack()),
				}
			}
		}()

		result, stageErr = st.fn(stageCtx, args)
		if stageErr != nil {
			// Unwind signals are control flow, not stage failures; they
			// must reach their boundary unwrapped.
			if _, ok := unwind.AsSignal(stageErr); ok {
				return nil, stageErr
			}
			return nil, &StageError{StageID: st.id, Op: "execute", Err: stageErr}
		}
		return result, nil
	}()

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	ev.cfg.metrics.RecordStageExecution(stageTracingCtx, st.id, duration, err)

	if ev.cfg.tracingEnabled {
		ev.cfg.spans.EndSpanWithError(stageSpan, err)
	}

	if err != nil {
		observability.LogStageError(ev.cfg.logger, st.id, err)
		return nil, err
	}

	// The last executed stage decides the result's visibility.
	v, visible := visibleValue(out)
	ev.visible = visible
	ev.stageCount++
	ev.lastStage = st.id

	observability.LogStageComplete(ev.cfg.logger, st.id, durationMs, visible)

	if st.tee {
		if haveUpstream {
			return upstream, nil
		}
		return ph.value()
	}
	return v, nil
}

// guardPasses evaluates a stage's When condition against the execution
// scope. An unbound identifier falls back to its literal text per the expr
// rules; a failing deferred binding fails the evaluation.
func (ev *evaluator) guardPasses(st *Stage) (bool, error) {
	var forceErr error
	pass, err := ev.cp.guard.Evaluate(st.when, func(name string) (any, bool) {
		v, rerr := ev.sc.Resolve(ev.ctx, name)
		if rerr != nil {
			var ub *scope.UnboundError
			if !errors.As(rerr, &ub) && forceErr == nil {
				forceErr = rerr
			}
			return nil, false
		}
		return v, true
	})
	if forceErr != nil {
		return false, &StageError{StageID: st.id, Op: "guard", Err: forceErr}
	}
	if err != nil {
		return false, &StageError{StageID: st.id, Op: "guard", Err: err}
	}
	return pass, nil
}

// resolveExpr resolves an ExprArg fragment against the execution scope.
func (ev *evaluator) resolveExpr(ctx context.Context, src string) (Value, error) {
	var forceErr error
	v := expr.Resolve(src, func(name string) (any, bool) {
		rv, rerr := ev.sc.Resolve(ctx, name)
		if rerr != nil {
			var ub *scope.UnboundError
			if !errors.As(rerr, &ub) && forceErr == nil {
				forceErr = rerr
			}
			return nil, false
		}
		return rv, true
	})
	if forceErr != nil {
		return nil, forceErr
	}
	return v, nil
}
