package magrittr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
)

// Pipeline is a mutable builder for creating pipeline expressions.
// Use New to create a pipeline, then chain Stage calls (with Tee, LazyArgs,
// and When annotations) to define the computation.
//
// Pipeline is NOT thread-safe during building. Use a single goroutine to
// construct the pipeline, then call Compile() to create an immutable
// CompiledPipeline that can be safely shared.
//
// Example:
//
//	p := magrittr.New(lexical).
//	    Stage("double", double).
//	    Stage("log", logResult).Tee().
//	    Stage("increment", increment)
//
//	compiled, err := p.Compile(magrittr.WithStrategy(magrittr.StrategyLazy))
type Pipeline struct {
	mu      sync.Mutex
	lexical *scope.Scope
	stages  []*Stage
}

// New creates a pipeline builder whose stages originate in the given
// lexical scope. New-scope and closure evaluation parent their execution
// scopes on it. A nil lexical scope gets a fresh root scope.
func New(lexical *scope.Scope) *Pipeline {
	if lexical == nil {
		lexical = scope.New()
	}
	return &Pipeline{lexical: lexical}
}

// Stage appends a named stage to the pipeline.
// Returns the pipeline for method chaining.
//
// A stage with no explicit Placeholder slot implicitly receives the
// upstream value as its first slot (normalized at Compile time).
//
// Panics if:
//   - id is empty
//   - id contains whitespace (space, tab, newline)
//   - fn is nil
//   - id already exists in the pipeline
func (p *Pipeline) Stage(id string, fn StageFunc, args ...Arg) *Pipeline {
	// Validation panics: builder misuse is a programming error.
	if id == "" {
		panic("magrittr: stage ID cannot be empty")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("magrittr: stage ID cannot contain whitespace")
	}

	if fn == nil {
		panic("magrittr: stage function cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, st := range p.stages {
		if st.id == id {
			panic(fmt.Sprintf("magrittr: duplicate stage ID: %s", id))
		}
	}

	p.stages = append(p.stages, &Stage{id: id, fn: fn, args: args})
	return p
}

// Tee annotates the most recently added stage to run purely for its side
// effect: its own result is discarded and the pre-stage value is re-injected
// downstream. The annotation is explicit, never inferred.
// Returns the pipeline for method chaining.
func (p *Pipeline) Tee() *Pipeline {
	p.annotate(func(st *Stage) { st.tee = true })
	return p
}

// LazyArgs annotates the most recently added stage to receive
// thunk.Deferred handles for its placeholder slots instead of forced
// values. The engine will not force the stage's upstream; the stage decides.
// Returns the pipeline for method chaining.
func (p *Pipeline) LazyArgs() *Pipeline {
	p.annotate(func(st *Stage) { st.lazyArgs = true })
	return p
}

// When guards the most recently added stage with a condition evaluated
// against the execution scope (see the expr package). When the condition is
// false the stage is skipped and the upstream value passes through
// unchanged.
// Returns the pipeline for method chaining.
func (p *Pipeline) When(cond string) *Pipeline {
	p.annotate(func(st *Stage) { st.when = cond })
	return p
}

// annotate applies fn to the last added stage, panicking on misuse.
func (p *Pipeline) annotate(fn func(*Stage)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stages) == 0 {
		panic("magrittr: annotation before any stage")
	}
	fn(p.stages[len(p.stages)-1])
}

// Len returns the number of stages added so far.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stages)
}

// Lexical returns the pipeline's originating scope.
func (p *Pipeline) Lexical() *scope.Scope {
	return p.lexical
}

// Evaluate compiles p and runs it once with the given strategy, scope kind,
// and caller scope. Convenience for one-shot evaluation; for repeated runs,
// compile once and call Run.
func Evaluate(ctx Context, p *Pipeline, initial Value, strategy Strategy, kind ScopeKind, caller *scope.Scope) (Result, error) {
	compiled, err := p.Compile(WithStrategy(strategy), WithScopeKind(kind))
	if err != nil {
		return Result{}, err
	}
	return compiled.Run(ctx, initial, WithCallerScope(caller))
}
