package magrittr

import (
	"context"
	"fmt"
)

// Helper stage functions used across tests

// double multiplies the upstream integer by two.
func double(ctx Context, args []Value) (Value, error) {
	return args[0].(int) * 2, nil
}

// increment adds one to the upstream integer.
func increment(ctx Context, args []Value) (Value, error) {
	return args[0].(int) + 1, nil
}

// passthrough returns the upstream value unchanged.
func passthrough(ctx Context, args []Value) (Value, error) {
	return args[0], nil
}

// makeCountingStage creates a stage that increments counter each time it
// runs and passes the value through doubled.
func makeCountingStage(counter *int) StageFunc {
	return func(ctx Context, args []Value) (Value, error) {
		*counter++
		return args[0].(int) * 2, nil
	}
}

// makeTrackingStage creates a stage that records its execution order.
func makeTrackingStage(name string, tracker *[]string) StageFunc {
	return func(ctx Context, args []Value) (Value, error) {
		*tracker = append(*tracker, name)
		return args[0], nil
	}
}

// makeFailingStage creates a stage that returns the given error.
func makeFailingStage(err error) StageFunc {
	return func(ctx Context, args []Value) (Value, error) {
		return nil, err
	}
}

// makePanicStage creates a stage that panics with the given value.
func makePanicStage(value any) StageFunc {
	return func(ctx Context, args []Value) (Value, error) {
		panic(value)
	}
}

// sumArgs adds all integer arguments.
func sumArgs(ctx Context, args []Value) (Value, error) {
	total := 0
	for i, a := range args {
		n, ok := a.(int)
		if !ok {
			return nil, fmt.Errorf("arg %d: expected int, got %T", i, a)
		}
		total += n
	}
	return total, nil
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// mustCompile compiles or panics, for tests exercising Run rather than
// Compile.
func mustCompile(p *Pipeline, opts ...CompileOption) *CompiledPipeline {
	cp, err := p.Compile(opts...)
	if err != nil {
		panic(err)
	}
	return cp
}

// allStrategies and allScopeKinds enumerate the compile matrix.
var allStrategies = []Strategy{StrategyEager, StrategyNested, StrategyLazy}

var allScopeKinds = []ScopeKind{ScopeNew, ScopeCurrent, ScopeClosure}

// runWith evaluates a compiled pipeline with a fresh test context.
func runWith(cp *CompiledPipeline, initial Value, opts ...RunOption) (Result, error) {
	return cp.Run(testCtx(), initial, opts...)
}
