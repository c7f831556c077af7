package expr

import (
	"fmt"
	"strings"
)

// BinaryOp is a function that compares two values and returns a boolean
// result.
type BinaryOp func(left, right any) bool

// Evaluator evaluates boolean guard conditions with optional custom
// operators. Identifiers in conditions resolve through a LookupFunc, so the
// same condition text works against any scope chain.
type Evaluator struct {
	customOps map[string]BinaryOp
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCustomOperator registers a custom binary operator.
// The operator name should not conflict with built-in operators.
func WithCustomOperator(name string, fn BinaryOp) Option {
	return func(e *Evaluator) {
		if e.customOps == nil {
			e.customOps = make(map[string]BinaryOp)
		}
		e.customOps[name] = fn
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate evaluates a boolean condition, resolving identifiers through
// lookup.
func (e *Evaluator) Evaluate(cond string, lookup LookupFunc) (bool, error) {
	return e.evaluateCondition(cond, lookup)
}

// Eval is a convenience function that evaluates a condition using the
// default evaluator (no custom operators).
func Eval(cond string, lookup LookupFunc) (bool, error) {
	return New().Evaluate(cond, lookup)
}

// evaluateCondition evaluates a condition expression.
// Supports: ==, !=, <, >, <=, >=, and, or, not, !, contains
func (e *Evaluator) evaluateCondition(cond string, lookup LookupFunc) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false, nil
	}

	// Negation with "not " prefix.
	if strings.HasPrefix(cond, "not ") {
		inner := strings.TrimPrefix(cond, "not ")
		result, err := e.evaluateCondition(strings.TrimSpace(inner), lookup)
		if err != nil {
			return false, err
		}
		return !result, nil
	}

	// Negation with "!" prefix.
	if strings.HasPrefix(cond, "!") {
		inner := strings.TrimPrefix(cond, "!")
		result, err := e.evaluateCondition(strings.TrimSpace(inner), lookup)
		if err != nil {
			return false, err
		}
		return !result, nil
	}

	// AND (split on first " and ").
	if parts := strings.SplitN(cond, " and ", 2); len(parts) == 2 {
		left, errL := e.evaluateCondition(parts[0], lookup)
		if errL != nil {
			return false, errL
		}
		right, errR := e.evaluateCondition(parts[1], lookup)
		if errR != nil {
			return false, errR
		}
		return left && right, nil
	}

	// OR (split on first " or ").
	if parts := strings.SplitN(cond, " or ", 2); len(parts) == 2 {
		left, errL := e.evaluateCondition(parts[0], lookup)
		if errL != nil {
			return false, errL
		}
		right, errR := e.evaluateCondition(parts[1], lookup)
		if errR != nil {
			return false, errR
		}
		return left || right, nil
	}

	// Built-in operators in order (longer operators first to avoid
	// partial matches).
	builtinOps := []struct {
		op      string
		compare BinaryOp
	}{
		{"==", func(l, r any) bool { return fmt.Sprintf("%v", l) == fmt.Sprintf("%v", r) }},
		{"!=", func(l, r any) bool { return fmt.Sprintf("%v", l) != fmt.Sprintf("%v", r) }},
		{">=", func(l, r any) bool { return ToFloat64(l) >= ToFloat64(r) }},
		{"<=", func(l, r any) bool { return ToFloat64(l) <= ToFloat64(r) }},
		{">", func(l, r any) bool { return ToFloat64(l) > ToFloat64(r) }},
		{"<", func(l, r any) bool { return ToFloat64(l) < ToFloat64(r) }},
		{" contains ", func(l, r any) bool {
			return strings.Contains(fmt.Sprintf("%v", l), fmt.Sprintf("%v", r))
		}},
	}

	for _, op := range builtinOps {
		if parts := strings.SplitN(cond, op.op, 2); len(parts) == 2 {
			left := Resolve(strings.TrimSpace(parts[0]), lookup)
			right := Resolve(strings.TrimSpace(parts[1]), lookup)
			return op.compare(left, right), nil
		}
	}

	// Custom operators (wrapped with spaces for word boundaries).
	for name, fn := range e.customOps {
		opPattern := " " + name + " "
		if parts := strings.SplitN(cond, opPattern, 2); len(parts) == 2 {
			left := Resolve(strings.TrimSpace(parts[0]), lookup)
			right := Resolve(strings.TrimSpace(parts[1]), lookup)
			return fn(left, right), nil
		}
	}

	// Single value: truthiness.
	return IsTruthy(Resolve(cond, lookup)), nil
}
