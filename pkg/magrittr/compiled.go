package magrittr

import (
	"github.com/adamchanging1/magrittr/pkg/magrittr/expr"
	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
)

// CompiledPipeline is an immutable, validated pipeline ready for
// evaluation. Created by Pipeline.Compile() or FromConfig.
//
// CompiledPipeline is safe for concurrent use: every Run evaluates in its
// own execution scope, so a single compiled pipeline can serve many
// goroutines.
type CompiledPipeline struct {
	stages       []*Stage
	lexical      *scope.Scope
	strategy     Strategy
	scopeKind    ScopeKind
	placeholder  string
	bindingNames []string
	guard        *expr.Evaluator
}

// Result is the outcome of an evaluation: the final value plus the
// visibility flag. A caller deciding whether to display the value checks
// Visible; the value itself is always present.
type Result struct {
	Value   Value
	Visible bool
}

// Strategy returns the expansion strategy the pipeline was compiled with.
func (cp *CompiledPipeline) Strategy() Strategy {
	return cp.strategy
}

// ScopeKind returns the scope kind the pipeline was compiled with.
func (cp *CompiledPipeline) ScopeKind() ScopeKind {
	return cp.scopeKind
}

// Placeholder returns the placeholder binding name.
func (cp *CompiledPipeline) Placeholder() string {
	return cp.placeholder
}

// Len returns the number of stages.
func (cp *CompiledPipeline) Len() int {
	return len(cp.stages)
}

// StageIDs returns the stage identifiers in pipeline order.
func (cp *CompiledPipeline) StageIDs() []string {
	ids := make([]string, len(cp.stages))
	for i, st := range cp.stages {
		ids[i] = st.id
	}
	return ids
}
