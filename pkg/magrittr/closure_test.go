package magrittr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
	"github.com/adamchanging1/magrittr/pkg/magrittr/unwind"
)

// TestClosure_WrongKind tests that only closure-kind pipelines wrap.
func TestClosure_WrongKind(t *testing.T) {
	compiled := mustCompile(New(nil).Stage("a", double))

	_, err := compiled.Closure()

	assert.ErrorIs(t, err, ErrNotClosureKind)
}

// TestClosure_CallRepeatedly tests that a closure is callable any number
// of times.
func TestClosure_CallRepeatedly(t *testing.T) {
	compiled := mustCompile(
		New(nil).Stage("double", double).Stage("increment", increment),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	for _, input := range []int{0, 1, 5, 100} {
		result, err := fn.Call(testCtx(), input)
		require.NoError(t, err)
		assert.Equal(t, input*2+1, result.Value)
	}
}

// TestClosure_CapturesLexicalScope tests that closures see their defining
// scope at call time, not a copy of it.
func TestClosure_CapturesLexicalScope(t *testing.T) {
	lexical := scope.New()
	lexical.Define("offset", 10)

	compiled := mustCompile(
		New(lexical).Stage("sum", sumArgs, Placeholder(), Ref("offset")),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	first, err := fn.Call(testCtx(), 1)
	require.NoError(t, err)
	assert.Equal(t, 11, first.Value)

	// Rebinding in the defining scope is visible on the next call.
	lexical.Define("offset", 100)

	second, err := fn.Call(testCtx(), 1)
	require.NoError(t, err)
	assert.Equal(t, 101, second.Value)
}

// TestClosure_ScopeIsolationBetweenCalls tests that a stage writing into
// its execution scope leaks nothing into the next call.
func TestClosure_ScopeIsolationBetweenCalls(t *testing.T) {
	poison := func(ctx Context, args []Value) (Value, error) {
		if ctx.Scope().Has("seen") {
			return nil, errors.New("binding leaked from a previous call")
		}
		ctx.Scope().Define("seen", true)
		return args[0], nil
	}
	count := 0

	compiled := mustCompile(
		New(nil).
			Stage("count", makeCountingStage(&count)).
			Stage("poison", poison),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	_, err = fn.Call(testCtx(), 1)
	require.NoError(t, err)
	_, err = fn.Call(testCtx(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, count, "each call evaluates independently")
}

// TestClosure_ContainsOwnUnwind tests that each invocation installs its
// own boundary.
func TestClosure_ContainsOwnUnwind(t *testing.T) {
	bail := func(ctx Context, args []Value) (Value, error) {
		if args[0].(int) < 0 {
			return nil, unwind.Return(ctx, 0)
		}
		return args[0].(int) * 2, nil
	}

	compiled := mustCompile(New(nil).Stage("bail", bail),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	neg, err := fn.Call(testCtx(), -5)
	require.NoError(t, err)
	assert.Equal(t, 0, neg.Value)

	pos, err := fn.Call(testCtx(), 5)
	require.NoError(t, err)
	assert.Equal(t, 10, pos.Value)
}

// TestClosure_NilContext tests the nil context guard on Call.
func TestClosure_NilContext(t *testing.T) {
	compiled := mustCompile(New(nil).Stage("a", double),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	_, err = fn.Call(nil, 1)
	assert.ErrorIs(t, err, ErrNilContext)
}

// TestClosure_RunDelegates tests that Run on a closure-kind pipeline
// behaves like a single Call.
func TestClosure_RunDelegates(t *testing.T) {
	compiled := mustCompile(New(nil).Stage("double", double),
		WithScopeKind(ScopeClosure))

	result, err := runWith(compiled, 21)

	require.NoError(t, err)
	assert.Equal(t, 42, result.Value)
}

// TestClosure_PipelineIntrospection tests the introspection accessor.
func TestClosure_PipelineIntrospection(t *testing.T) {
	compiled := mustCompile(New(nil).Stage("a", double),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	assert.Same(t, compiled, fn.Pipeline())
	assert.Equal(t, []string{"a"}, fn.Pipeline().StageIDs())
}
