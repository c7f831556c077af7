package magrittr

import "fmt"

// Closure is a reusable pipeline value: a compiled pipeline captured
// together with its lexical scope, callable any number of times. Each Call
// evaluates in a fresh child scope, so invocations are independent and a
// closure outlives any single evaluation.
type Closure struct {
	cp *CompiledPipeline
}

// Closure wraps the compiled pipeline as a callable value.
// Returns ErrNotClosureKind unless the pipeline was compiled with
// ScopeClosure.
//
// Example:
//
//	compiled, _ := p.Compile(magrittr.WithScopeKind(magrittr.ScopeClosure))
//	fn, _ := compiled.Closure()
//	a, _ := fn.Call(ctx, 5)
//	b, _ := fn.Call(ctx, 10)
func (cp *CompiledPipeline) Closure() (*Closure, error) {
	if cp.scopeKind != ScopeClosure {
		return nil, fmt.Errorf("%w: compiled with %s", ErrNotClosureKind, cp.scopeKind)
	}
	return &Closure{cp: cp}, nil
}

// Call evaluates the pipeline with the given initial value in a fresh
// child of the captured lexical scope.
func (c *Closure) Call(ctx Context, initial Value, opts ...RunOption) (Result, error) {
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return c.cp.runIn(ctx, initial, &cfg)
}

// Pipeline returns the underlying compiled pipeline, for introspection.
func (c *Closure) Pipeline() *CompiledPipeline {
	return c.cp
}
