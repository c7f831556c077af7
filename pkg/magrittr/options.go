package magrittr

import (
	"log/slog"

	"github.com/adamchanging1/magrittr/pkg/magrittr/expr"
	"github.com/adamchanging1/magrittr/pkg/magrittr/observability"
	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
)

// compileConfig holds configuration fixed at compile time.
type compileConfig struct {
	strategy      Strategy
	scopeKind     ScopeKind
	placeholder   string
	allowMultiRef bool
	guardOps      map[string]expr.BinaryOp
}

// defaultCompileConfig returns the default compile configuration.
func defaultCompileConfig() compileConfig {
	return compileConfig{
		strategy:    StrategyEager,
		scopeKind:   ScopeNew,
		placeholder: DefaultPlaceholder,
	}
}

// CompileOption configures compilation behavior.
type CompileOption func(*compileConfig)

// WithStrategy sets the expansion strategy for the compiled pipeline.
// Default: StrategyEager
func WithStrategy(s Strategy) CompileOption {
	return func(c *compileConfig) {
		c.strategy = s
	}
}

// WithScopeKind sets the scope kind the pipeline evaluates in.
// Default: ScopeNew
func WithScopeKind(k ScopeKind) CompileOption {
	return func(c *compileConfig) {
		c.scopeKind = k
	}
}

// WithPlaceholderName overrides the placeholder binding name.
// Default: "."
//
// Compile rejects a placeholder that is empty, contains whitespace, or
// collides with a stage ID or a Ref name used by the pipeline.
func WithPlaceholderName(name string) CompileOption {
	return func(c *compileConfig) {
		c.placeholder = name
	}
}

// WithAllowMultiReference permits a single stage to reference the
// placeholder more than once. Off by default: under nested expansion
// each reference re-evaluates the whole upstream, so multiple references
// silently multiply side effects. Enabling this acknowledges that cost.
func WithAllowMultiReference() CompileOption {
	return func(c *compileConfig) {
		c.allowMultiRef = true
	}
}

// WithGuardOperator registers a custom binary operator usable in When
// guard conditions.
//
// Example:
//
//	compiled, err := p.Compile(
//	    magrittr.WithGuardOperator("startswith", func(a, b any) bool {
//	        s, _ := a.(string)
//	        prefix, _ := b.(string)
//	        return strings.HasPrefix(s, prefix)
//	    }))
func WithGuardOperator(name string, op expr.BinaryOp) CompileOption {
	return func(c *compileConfig) {
		if c.guardOps == nil {
			c.guardOps = make(map[string]expr.BinaryOp)
		}
		c.guardOps[name] = op
	}
}

// runConfig holds configuration for a single evaluation.
type runConfig struct {
	maxDepth       int
	callerScope    *scope.Scope
	evalID         string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	evictionOn     bool
}

// defaultRunConfig returns the default evaluation configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxDepth:   1000,
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
		evictionOn: true,
	}
}

// RunOption configures evaluation behavior.
type RunOption func(*runConfig)

// WithMaxDepth sets the maximum nesting depth for nested expansion.
// Default: 1000
//
// Nested expansion re-evaluates the upstream chain recursively, so a
// pipeline of n stages needs depth proportional to n. If evaluation
// exceeds this limit, Run returns a DepthError wrapping ErrMaxDepth.
// Eager and lazy expansion run in constant depth and never hit the limit.
//
// Example:
//
//	result, err := compiled.Run(ctx, input, magrittr.WithMaxDepth(100))
func WithMaxDepth(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithCallerScope provides the caller's scope for current-scope
// evaluation. Required when the pipeline was compiled with ScopeCurrent;
// ignored otherwise.
func WithCallerScope(s *scope.Scope) RunOption {
	return func(c *runConfig) {
		c.callerScope = s
	}
}

// WithEvalID sets the evaluation identifier used in logs, metrics, and
// traces. Defaults to the context's EvalID.
func WithEvalID(id string) RunOption {
	return func(c *runConfig) {
		c.evalID = id
	}
}

// WithObservabilityLogger sets the logger used for evaluation lifecycle
// events (start, per-stage, completion, errors). Defaults to the
// context's logger.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables or disables OpenTelemetry metrics collection.
// Disabled by default. When enabled, records stage executions, latencies,
// errors, thunk forces, and binding evictions.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables or disables OpenTelemetry tracing.
// Disabled by default. When enabled, creates an evaluation span with
// child spans per stage.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithEviction enables or disables eviction of forced lazy bindings.
// Enabled by default: under lazy expansion, once a stage binding is
// forced downstream its memoized value is released as soon as the next
// stage completes. Disable to keep forced values resident (useful when
// inspecting the scope after evaluation).
func WithEviction(enabled bool) RunOption {
	return func(c *runConfig) {
		c.evictionOn = enabled
	}
}
