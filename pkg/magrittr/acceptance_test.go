package magrittr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
	"github.com/adamchanging1/magrittr/pkg/magrittr/thunk"
)

// TestAcceptance_StrategyScopeMatrix runs the same pure pipeline under
// every strategy and scope kind combination and expects identical results.
func TestAcceptance_StrategyScopeMatrix(t *testing.T) {
	for _, strategy := range allStrategies {
		for _, kind := range allScopeKinds {
			name := fmt.Sprintf("%s/%s", strategy, kind)
			t.Run(name, func(t *testing.T) {
				p := New(nil).
					Stage("double", double).
					Stage("increment", increment).
					Stage("double_again", double)

				compiled := mustCompile(p,
					WithStrategy(strategy),
					WithScopeKind(kind))

				var (
					result Result
					err    error
				)
				if kind == ScopeCurrent {
					result, err = runWith(compiled, 5, WithCallerScope(scope.New()))
				} else {
					result, err = runWith(compiled, 5)
				}

				require.NoError(t, err)
				assert.Equal(t, 22, result.Value)
				assert.True(t, result.Visible)
			})
		}
	}
}

// TestAcceptance_StrategiesAgreeOnPurePipelines tests observational
// equivalence: for side-effect-free stages the three strategies agree on
// value and visibility across a spread of inputs.
func TestAcceptance_StrategiesAgreeOnPurePipelines(t *testing.T) {
	build := func(strategy Strategy) *CompiledPipeline {
		p := New(nil).
			Stage("double", double).
			Stage("increment", increment).
			Stage("hide", func(ctx Context, args []Value) (Value, error) {
				return Invisible(args[0]), nil
			}).
			Stage("reveal", increment)
		return mustCompile(p, WithStrategy(strategy))
	}

	eager := build(StrategyEager)
	nested := build(StrategyNested)
	lazy := build(StrategyLazy)

	for _, input := range []int{-10, -1, 0, 1, 7, 1000} {
		re, errE := runWith(eager, input)
		rn, errN := runWith(nested, input)
		rl, errL := runWith(lazy, input)

		require.NoError(t, errE)
		require.NoError(t, errN)
		require.NoError(t, errL)

		assert.Equal(t, re, rn, "input %d: eager vs nested", input)
		assert.Equal(t, re, rl, "input %d: eager vs lazy", input)
	}
}

// TestAcceptance_ExecutionOrder tests that eager evaluation runs stages
// strictly left to right.
func TestAcceptance_ExecutionOrder(t *testing.T) {
	var order []string
	p := New(nil).
		Stage("a", makeTrackingStage("a", &order)).
		Stage("b", makeTrackingStage("b", &order)).
		Stage("c", makeTrackingStage("c", &order))

	_, err := runWith(mustCompile(p), 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// TestAcceptance_LazyExecutionOrder tests that lazy evaluation still runs
// each demanded stage in dependency order, driven from the last.
func TestAcceptance_LazyExecutionOrder(t *testing.T) {
	var order []string
	p := New(nil).
		Stage("a", makeTrackingStage("a", &order)).
		Stage("b", makeTrackingStage("b", &order)).
		Stage("c", makeTrackingStage("c", &order))

	_, err := runWith(mustCompile(p, WithStrategy(StrategyLazy)), 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// TestAcceptance_DeepPipelineConstantStack tests that eager and lazy
// evaluation handle pipelines far beyond any plausible recursion budget.
func TestAcceptance_DeepPipelineConstantStack(t *testing.T) {
	const depth = 5000

	p := New(nil)
	for i := 0; i < depth; i++ {
		p.Stage(fmt.Sprintf("s%04d", i), increment)
	}

	for _, strategy := range []Strategy{StrategyEager, StrategyLazy} {
		compiled := mustCompile(p, WithStrategy(strategy))

		result, err := runWith(compiled, 0, WithMaxDepth(10))

		require.NoError(t, err, "strategy %s", strategy)
		assert.Equal(t, depth, result.Value)
	}
}

// TestAcceptance_ClosureIndependentCalls tests that closure invocations
// share nothing through their execution scopes.
func TestAcceptance_ClosureIndependentCalls(t *testing.T) {
	leak := func(ctx Context, args []Value) (Value, error) {
		return args[0].(int) + 1, nil
	}

	compiled := mustCompile(New(nil).Stage("leak", leak),
		WithScopeKind(ScopeClosure))

	fn, err := compiled.Closure()
	require.NoError(t, err)

	first, err := fn.Call(testCtx(), 1)
	require.NoError(t, err)
	second, err := fn.Call(testCtx(), 100)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Value)
	assert.Equal(t, 101, second.Value)
}

// TestAcceptance_LazyEvictionAfterForce tests that forced lazy bindings
// release their computations while their memoized values stay
// retrievable.
func TestAcceptance_LazyEvictionAfterForce(t *testing.T) {
	var handle *thunk.Thunk
	capture := func(ctx Context, args []Value) (Value, error) {
		d := args[0].(*thunk.Thunk)
		handle = d
		v, err := d.Force(ctx)
		if err != nil {
			return nil, err
		}
		return v.(int) + 1, nil
	}

	p := New(nil).
		Stage("double", double).
		Stage("capture", capture).LazyArgs()

	compiled := mustCompile(p, WithStrategy(StrategyLazy))

	result, err := runWith(compiled, 5, WithEviction(true))

	require.NoError(t, err)
	assert.Equal(t, 11, result.Value)

	require.NotNil(t, handle)
	assert.True(t, handle.Evicted(), "forced binding releases its computation after the run")

	v, err := handle.Force(testCtx())
	require.NoError(t, err)
	assert.Equal(t, 10, v, "memoized value survives eviction")
}

// TestAcceptance_EvictionDisabled tests WithEviction(false).
func TestAcceptance_EvictionDisabled(t *testing.T) {
	var handle *thunk.Thunk
	capture := func(ctx Context, args []Value) (Value, error) {
		d := args[0].(*thunk.Thunk)
		handle = d
		return d.Force(ctx)
	}

	p := New(nil).
		Stage("double", double).
		Stage("capture", capture).LazyArgs()

	compiled := mustCompile(p, WithStrategy(StrategyLazy))

	_, err := runWith(compiled, 5, WithEviction(false))

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.False(t, handle.Evicted())
}

// TestAcceptance_ErrorLeavesNoPartialResult tests that a failing
// evaluation yields the zero Result.
func TestAcceptance_ErrorLeavesNoPartialResult(t *testing.T) {
	boom := errors.New("boom")

	for _, strategy := range allStrategies {
		p := New(nil).
			Stage("double", double).
			Stage("fail", makeFailingStage(boom))

		compiled := mustCompile(p, WithStrategy(strategy))

		result, err := runWith(compiled, 5)

		require.Error(t, err, "strategy %s", strategy)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, Result{}, result)
	}
}
