package magrittr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
)

// TestNew_NilLexicalScope tests that a nil lexical scope gets a fresh root.
func TestNew_NilLexicalScope(t *testing.T) {
	p := New(nil)

	require.NotNil(t, p.Lexical())
	assert.Nil(t, p.Lexical().Parent())
}

// TestNew_KeepsLexicalScope tests that the given scope is retained.
func TestNew_KeepsLexicalScope(t *testing.T) {
	lexical := scope.New()
	lexical.Define("limit", 10)

	p := New(lexical)

	assert.Same(t, lexical, p.Lexical())
}

// TestStage_Chaining tests the fluent builder interface.
func TestStage_Chaining(t *testing.T) {
	p := New(nil).
		Stage("a", double).
		Stage("b", increment).
		Stage("c", double)

	assert.Equal(t, 3, p.Len())
}

// TestStage_EmptyIDPanics tests that an empty stage ID panics.
func TestStage_EmptyIDPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil).Stage("", double)
	})
}

// TestStage_WhitespaceIDPanics tests that whitespace in IDs panics.
func TestStage_WhitespaceIDPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil).Stage("has space", double)
	})
}

// TestStage_NilFuncPanics tests that a nil stage function panics.
func TestStage_NilFuncPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil).Stage("a", nil)
	})
}

// TestStage_DuplicateIDPanics tests that duplicate stage IDs panic.
func TestStage_DuplicateIDPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil).Stage("a", double).Stage("a", increment)
	})
}

// TestTee_AnnotatesLastStage tests the tee annotation.
func TestTee_AnnotatesLastStage(t *testing.T) {
	p := New(nil).
		Stage("a", double).
		Stage("b", passthrough).Tee()

	cp := mustCompile(p)

	assert.False(t, cp.stages[0].IsTee())
	assert.True(t, cp.stages[1].IsTee())
}

// TestLazyArgs_AnnotatesLastStage tests the lazy-args annotation.
func TestLazyArgs_AnnotatesLastStage(t *testing.T) {
	p := New(nil).
		Stage("a", double).
		Stage("b", passthrough).LazyArgs()

	cp := mustCompile(p, WithStrategy(StrategyLazy))

	assert.False(t, cp.stages[0].HasLazyArgs())
	assert.True(t, cp.stages[1].HasLazyArgs())
}

// TestWhen_AnnotatesLastStage tests the guard annotation.
func TestWhen_AnnotatesLastStage(t *testing.T) {
	p := New(nil).
		Stage("a", double).When("enabled == true")

	cp := mustCompile(p)

	assert.Equal(t, "enabled == true", cp.stages[0].Guard())
}

// TestAnnotation_BeforeAnyStagePanics tests annotating an empty pipeline.
func TestAnnotation_BeforeAnyStagePanics(t *testing.T) {
	assert.Panics(t, func() { New(nil).Tee() })
	assert.Panics(t, func() { New(nil).LazyArgs() })
	assert.Panics(t, func() { New(nil).When("x == 1") })
}

// TestEvaluate_CompilesAndRuns tests the one-shot entry point.
func TestEvaluate_CompilesAndRuns(t *testing.T) {
	p := New(nil).
		Stage("double", double).
		Stage("increment", increment)

	result, err := Evaluate(testCtx(), p, 5, StrategyEager, ScopeNew, nil)

	require.NoError(t, err)
	assert.Equal(t, 11, result.Value)
	assert.True(t, result.Visible)
}

// TestEvaluate_CurrentScope tests the one-shot entry point with a caller
// scope.
func TestEvaluate_CurrentScope(t *testing.T) {
	caller := scope.New()

	p := New(nil).Stage("double", double)

	result, err := Evaluate(testCtx(), p, 4, StrategyEager, ScopeCurrent, caller)

	require.NoError(t, err)
	assert.Equal(t, 8, result.Value)
}
