package magrittr

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder is the reserved identifier substituted for the upstream
// value within a stage, unless overridden with WithPlaceholderName.
const DefaultPlaceholder = "."

// Strategy selects how a pipeline is rewritten into an executable form.
type Strategy int

// Expansion strategies.
const (
	// StrategyEager binds each stage's result to a single reused name and
	// feeds it to the next stage as a plain value. Forces every stage
	// immediately; constant stack depth; upstream evaluated once per
	// stage regardless of how many placeholder references it has.
	StrategyEager Strategy = iota

	// StrategyNested substitutes each stage's placeholder with the full
	// upstream expression. Preserves laziness, but a stage referencing
	// the placeholder k times re-evaluates the upstream expression k
	// times, and evaluation depth grows with pipeline length.
	StrategyNested

	// StrategyLazy binds each stage's result to a freshly named deferred
	// binding wrapping the stage expression over the previous binding.
	// Preserves laziness and single evaluation at constant stack depth;
	// forced bindings are evicted after each stage.
	StrategyLazy
)

// String returns the string representation of a Strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyEager:
		return "eager"
	case StrategyNested:
		return "nested"
	case StrategyLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name ("nested", "eager", "lazy").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eager":
		return StrategyEager, nil
	case "nested":
		return StrategyNested, nil
	case "lazy":
		return StrategyLazy, nil
	default:
		return StrategyEager, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// ScopeKind selects where the rewritten form executes.
type ScopeKind int

// Scope kinds.
const (
	// ScopeNew creates a fresh scope whose parent is the pipeline's
	// lexical scope and discards it entirely on exit. Non-local exits
	// born inside the evaluation terminate only the evaluation.
	ScopeNew ScopeKind = iota

	// ScopeCurrent binds the placeholder directly in the caller's live
	// scope, restoring its pre-pipeline state on every exit path. Stage
	// side effects and non-local exits observe the caller's scope
	// directly.
	ScopeCurrent

	// ScopeClosure produces a reusable closure whose parameter is the
	// placeholder; each invocation gets an independent execution scope
	// with new-scope semantics.
	ScopeClosure
)

// String returns the string representation of a ScopeKind.
func (k ScopeKind) String() string {
	switch k {
	case ScopeNew:
		return "new"
	case ScopeCurrent:
		return "current"
	case ScopeClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// ParseScopeKind parses a scope kind name ("current", "new", "closure").
func ParseScopeKind(s string) (ScopeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return ScopeNew, nil
	case "current":
		return ScopeCurrent, nil
	case "closure":
		return ScopeClosure, nil
	default:
		return ScopeNew, fmt.Errorf("%w: %q", ErrUnknownScopeKind, s)
	}
}
