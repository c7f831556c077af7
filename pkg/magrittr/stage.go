package magrittr

// Value is any Go value flowing through a pipeline.
type Value = any

// StageFunc is the signature for all stage functions.
// Stages receive the evaluation context and their resolved argument slots,
// and return a result value and any error.
//
// Under a stage annotated with LazyArgs, placeholder slots hold
// thunk.Deferred handles instead of forced values; the stage decides
// whether to force them.
//
// Example:
//
//	func double(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
//	    return args[0].(int) * 2, nil
//	}
type StageFunc func(ctx Context, args []Value) (Value, error)

// argKind discriminates argument slot variants.
type argKind int

const (
	argPlaceholder argKind = iota
	argLiteral
	argRef
	argExpr
)

// Arg is one argument slot of a stage. Slots are built with Placeholder,
// Lit, Ref, or ExprArg.
type Arg struct {
	kind    argKind
	literal Value
	name    string
	src     string
}

// Placeholder marks an argument slot to be filled with the upstream value.
// A stage may reference the placeholder zero, one, or multiple times; a
// stage with no placeholder slot implicitly receives the upstream value as
// its first slot.
func Placeholder() Arg {
	return Arg{kind: argPlaceholder}
}

// Lit creates a literal argument slot.
func Lit(v Value) Arg {
	return Arg{kind: argLiteral, literal: v}
}

// Ref creates an argument slot resolved from the execution scope by name at
// stage call time.
func Ref(name string) Arg {
	return Arg{kind: argRef, name: name}
}

// ExprArg creates an argument slot resolved by evaluating a literal or
// identifier fragment (see the expr package) against the execution scope.
func ExprArg(src string) Arg {
	return Arg{kind: argExpr, src: src}
}

// Stage is one operation in a pipeline: a function with argument slots,
// some of which may be placeholder slots. Stages are immutable after
// Compile; the builder returns stages only through Pipeline methods.
type Stage struct {
	id       string
	fn       StageFunc
	args     []Arg
	tee      bool
	lazyArgs bool
	when     string
}

// ID returns the stage identifier.
func (s *Stage) ID() string {
	return s.id
}

// IsTee reports whether the stage re-injects the pre-stage value.
func (s *Stage) IsTee() bool {
	return s.tee
}

// HasLazyArgs reports whether the stage receives deferred placeholder slots.
func (s *Stage) HasLazyArgs() bool {
	return s.lazyArgs
}

// Guard returns the stage's guard condition, or "" if unguarded.
func (s *Stage) Guard() string {
	return s.when
}

// placeholderCount returns the number of explicit placeholder slots.
func (s *Stage) placeholderCount() int {
	n := 0
	for _, a := range s.args {
		if a.kind == argPlaceholder {
			n++
		}
	}
	return n
}

// refNames returns the scope names the stage's slots resolve, for
// placeholder collision checks.
func (s *Stage) refNames() []string {
	var names []string
	for _, a := range s.args {
		if a.kind == argRef {
			names = append(names, a.name)
		}
	}
	return names
}

// clone returns a deep copy of the stage.
func (s *Stage) clone() *Stage {
	cp := *s
	cp.args = make([]Arg, len(s.args))
	copy(cp.args, s.args)
	return &cp
}
