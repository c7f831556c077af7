/*
Package magrittr provides an evaluation engine for pipeline expressions.

# Overview

magrittr is a Go library for building and evaluating pipelines: linear
sequences of stages where each stage consumes the previous stage's result
through a placeholder. Pipelines are built once, compiled with an
expansion strategy and a scope kind, and evaluated any number of times.

The engine supports:
  - Three expansion strategies: eager, nested, and lazy
  - Three scope kinds: new, current, and closure
  - A visibility flag on every result, so callers can decide whether to
    display the final value
  - Tee stages that run for their side effect and re-inject the upstream
    value
  - Lazy-argument stages that receive deferred handles and decide
    themselves whether to force their upstream
  - Non-local exits that unwind to the evaluation boundary
  - OpenTelemetry integration for observability

# Basic Usage

Build a pipeline with stages, then compile and run:

	func double(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
	    return args[0].(int) * 2, nil
	}

	func increment(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
	    return args[0].(int) + 1, nil
	}

	func main() {
	    p := magrittr.New(nil).
	        Stage("double", double).
	        Stage("increment", increment).
	        Stage("double_again", double)

	    compiled, err := p.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := magrittr.NewContext(context.Background())
	    result, err := compiled.Run(ctx, 5)
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Value) // 22
	}

A stage with no explicit argument slots implicitly receives the upstream
value as its first argument. Explicit slots mix the placeholder with
literals and scope references:

	p.Stage("clamp", clamp, magrittr.Placeholder(), magrittr.Lit(0), magrittr.Ref("limit"))

# Expansion Strategies

All three strategies produce the same final value for pipelines whose
stages are pure; they differ in evaluation order and cost:

  - StrategyEager runs each stage as soon as its input is available.
    Constant call-stack depth, one execution per stage.
  - StrategyNested substitutes each placeholder reference with the whole
    upstream expression. A stage referencing the placeholder twice runs
    its upstream twice. Depth grows with pipeline length and is metered
    by WithMaxDepth.
  - StrategyLazy binds each stage to a force-once thunk and forces only
    the last. Stages whose results are never demanded never run, and
    memoization keeps every stage to at most one execution.

# Scope Kinds

The scope kind fixes where evaluation happens and what survives it:

  - ScopeNew evaluates in a fresh scope discarded afterward.
  - ScopeCurrent evaluates directly in the caller's scope (provide it
    with WithCallerScope). The engine restores every binding it touched
    on exit, success or failure.
  - ScopeClosure wraps the pipeline as a reusable callable; see
    CompiledPipeline.Closure.

Stages reach the execution scope through Context.Scope. Under
ScopeCurrent a name a stage defines there lands in the caller's scope
and survives the pipeline; under ScopeNew and ScopeClosure it is
discarded with the per-evaluation scope.

# Visibility

A stage marks its result invisible by wrapping it:

	func assign(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
	    store(args[0])
	    return magrittr.Invisible(args[0]), nil
	}

The last executed stage decides the Result's Visible flag. The value is
always present; visibility only advises display.

# Non-Local Exits

A stage aborts the rest of the pipeline by returning an unwind signal:

	func bail(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
	    if args[0].(int) < 0 {
	        return nil, unwind.Return(ctx, 0)
	    }
	    return args[0], nil
	}

New-scope and closure evaluations install a boundary and contain their
own signals: the signal's value becomes the evaluation's result.
Current-scope evaluations install no boundary, so signals propagate to
the nearest enclosing one.

# Declarative Pipelines

Build pipelines from YAML or JSON configuration with FromConfig:

	stages := magrittr.NewStageRegistry()
	stages.Register("double", double)
	stages.Register("increment", increment)

	cfg, err := config.FromFile("pipeline.yaml")
	compiled, err := magrittr.FromConfig(cfg, stages, nil)

# Observability

Enable logging, metrics, and tracing per evaluation:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	result, err := compiled.Run(ctx, input,
	    magrittr.WithObservabilityLogger(logger),
	    magrittr.WithMetrics(true),
	    magrittr.WithTracing(true))

Logs include structured fields: eval_id, stage_id, duration_ms, visible.
OpenTelemetry metrics: magrittr.stage.executions, magrittr.stage.latency_ms, etc.
OpenTelemetry tracing: magrittr.eval > magrittr.stage.{id} spans.

# Error Handling

Errors include context about which stage failed:

	result, err := compiled.Run(ctx, input)
	var stageErr *magrittr.StageError
	if errors.As(err, &stageErr) {
	    log.Printf("stage %s failed during %s: %v", stageErr.StageID, stageErr.Op, stageErr.Err)
	}

Stage panics are recovered and returned as *PanicError with the captured
stack. Sentinel errors (ErrEmptyPipeline, ErrMaxDepth, ...) support
errors.Is through the wrapping chain.
*/
package magrittr
