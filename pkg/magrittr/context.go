package magrittr

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
	"github.com/adamchanging1/magrittr/pkg/magrittr/unwind"
)

// Context provides execution context to stages.
// It extends context.Context with magrittr-specific services and metadata.
//
// Context is immutable after creation. The evaluator creates derived
// contexts for each stage with updated StageID and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with evaluation and
	// stage context. Never returns nil - defaults to slog.Default() if not
	// configured.
	Logger() *slog.Logger

	// Metadata

	// EvalID returns the unique identifier for this evaluation.
	// Auto-generated if not configured.
	EvalID() string

	// StageID returns the stage currently being executed.
	// Empty string outside of stage execution.
	StageID() string

	// Scope returns the execution scope of the running evaluation: the
	// caller's scope under current-scope evaluation, the per-evaluation
	// fresh scope otherwise. Stages use it to bind names; under
	// current-scope evaluation such bindings land in the caller's scope
	// and survive the pipeline. Nil outside of an evaluation.
	Scope() *scope.Scope

	// Boundary returns the innermost unwind boundary installed by the
	// evaluator, or the zero Boundary when evaluating in the caller's
	// scope (current-scope evaluation installs none).
	Boundary() unwind.Boundary
}

// evalContext is the internal implementation of Context.
type evalContext struct {
	context.Context

	logger   *slog.Logger
	evalID   string
	stageID  string
	boundary unwind.Boundary
	scope    *scope.Scope
}

// Logger returns the configured logger.
func (c *evalContext) Logger() *slog.Logger {
	return c.logger
}

// EvalID returns the evaluation identifier.
func (c *evalContext) EvalID() string {
	return c.evalID
}

// StageID returns the current stage identifier.
func (c *evalContext) StageID() string {
	return c.stageID
}

// Boundary returns the innermost unwind boundary.
func (c *evalContext) Boundary() unwind.Boundary {
	return c.boundary
}

// Scope returns the execution scope, or nil outside of an evaluation.
func (c *evalContext) Scope() *scope.Scope {
	return c.scope
}

// ContextOption configures a Context.
type ContextOption func(*evalContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with eval_id and stage_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *evalContext) {
		c.logger = logger
	}
}

// WithContextEvalID sets the evaluation identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextEvalID(id string) ContextOption {
	return func(c *evalContext) {
		c.evalID = id
	}
}

// NewContext creates an evaluation context from a standard context.
// The returned Context wraps the provided context.Context and adds
// magrittr-specific services and metadata.
//
// Example:
//
//	ctx := magrittr.NewContext(context.Background(),
//	    magrittr.WithLogger(myLogger),
//	    magrittr.WithContextEvalID("eval-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &evalContext{
		Context: ctx,
		logger:  slog.Default(),
		evalID:  uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// adopt converts any Context into the internal implementation so the
// evaluator can derive per-stage and per-boundary variants. Foreign
// implementations keep their identity and metadata as the embedded parent.
func adopt(ctx Context) *evalContext {
	if ec, ok := ctx.(*evalContext); ok {
		return ec
	}
	return &evalContext{
		Context:  ctx,
		logger:   ctx.Logger(),
		evalID:   ctx.EvalID(),
		stageID:  ctx.StageID(),
		boundary: ctx.Boundary(),
		scope:    ctx.Scope(),
	}
}

// withStageID returns a new context with the given stage ID set.
// Used internally by the evaluator to enrich the context per-stage.
func (c *evalContext) withStageID(stageID string) *evalContext {
	return &evalContext{
		Context:  c.Context,
		logger:   c.logger.With("eval_id", c.evalID, "stage_id", stageID),
		evalID:   c.evalID,
		stageID:  stageID,
		boundary: c.boundary,
		scope:    c.scope,
	}
}

// withBoundary returns a new context with the given unwind boundary
// installed, both on the Context interface and on the embedded
// context.Context so unwind.Return finds it.
func (c *evalContext) withBoundary(b unwind.Boundary) *evalContext {
	return &evalContext{
		Context:  unwind.WithBoundary(c.Context, b),
		logger:   c.logger,
		evalID:   c.evalID,
		stageID:  c.stageID,
		boundary: b,
		scope:    c.scope,
	}
}

// withScope returns a new context carrying the evaluation's execution
// scope, so stage code can bind names where the scope kind dictates.
func (c *evalContext) withScope(sc *scope.Scope) *evalContext {
	return &evalContext{
		Context:  c.Context,
		logger:   c.logger,
		evalID:   c.evalID,
		stageID:  c.stageID,
		boundary: c.boundary,
		scope:    sc,
	}
}
