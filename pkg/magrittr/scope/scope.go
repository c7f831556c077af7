// Package scope provides chained identifier-to-binding environments for the
// pipeline evaluator.
//
// A Scope maps names to bindings and has at most one parent; lookup walks
// the parent chain. Scopes are owned by whichever execution context created
// them, except a caller's "current" scope, which the engine only borrows:
// it must restore any name it touched on exit, which Swap supports.
//
// Bindings created by the engine are marked as engine-owned so teardown can
// remove exactly what the engine added and nothing the caller or a stage
// defined.
//
// Scopes are single-threaded by contract; the evaluator is synchronous and
// nothing mutates a scope concurrently.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamchanging1/magrittr/pkg/magrittr/thunk"
)

// ErrUnbound indicates a lookup for a name with no binding anywhere in the
// scope chain. Referencing a binding after its teardown released it is a
// programming error, reported, not recovered.
var ErrUnbound = errors.New("unbound identifier")

// UnboundError reports the name that failed to resolve.
type UnboundError struct {
	// Name is the identifier that has no binding.
	Name string
}

// Error implements the error interface.
func (e *UnboundError) Error() string {
	return fmt.Sprintf("unbound identifier %q", e.Name)
}

// Unwrap returns ErrUnbound for errors.Is support.
func (e *UnboundError) Unwrap() error {
	return ErrUnbound
}

// Binding pairs a name with either a forced value or a deferred one.
type Binding struct {
	name        string
	value       any
	deferred    *thunk.Thunk
	engineOwned bool
}

// Name returns the bound identifier.
func (b *Binding) Name() string {
	return b.name
}

// EngineOwned reports whether the engine (not caller code) created the
// binding.
func (b *Binding) EngineOwned() bool {
	return b.engineOwned
}

// Deferred returns the thunk behind the binding, or nil for forced values.
func (b *Binding) Deferred() *thunk.Thunk {
	return b.deferred
}

// Value returns the bound value, forcing a deferred binding on demand.
func (b *Binding) Value(ctx context.Context) (any, error) {
	if b.deferred != nil {
		return b.deferred.Force(ctx)
	}
	return b.value, nil
}

// Scope is a mapping from identifier to binding with single-parent fallback
// lookup. The parent pointer is a non-owning reference: lookups read through
// it, mutations never follow it.
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
}

// New creates a root scope with no parent.
func New() *Scope {
	return &Scope{bindings: make(map[string]*Binding)}
}

// Child creates a scope whose parent is s. The child owns its own bindings;
// the parent is only consulted for fallback lookup.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, bindings: make(map[string]*Binding)}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define binds a forced value in this scope, shadowing any parent binding
// of the same name. Caller-defined bindings are not engine-owned.
func (s *Scope) Define(name string, v any) *Binding {
	b := &Binding{name: name, value: v}
	s.bindings[name] = b
	return b
}

// DefineDeferred binds a thunk in this scope. The value is computed when the
// binding is first resolved.
func (s *Scope) DefineDeferred(name string, t *thunk.Thunk) *Binding {
	b := &Binding{name: name, deferred: t}
	s.bindings[name] = b
	return b
}

// DefineOwned binds a forced value marked as engine-owned, so teardown can
// distinguish it from pre-existing bindings of the same name.
func (s *Scope) DefineOwned(name string, v any) *Binding {
	b := &Binding{name: name, value: v, engineOwned: true}
	s.bindings[name] = b
	return b
}

// DefineDeferredOwned binds a thunk marked as engine-owned.
func (s *Scope) DefineDeferredOwned(name string, t *thunk.Thunk) *Binding {
	b := &Binding{name: name, deferred: t, engineOwned: true}
	s.bindings[name] = b
	return b
}

// Lookup returns the binding for name, walking the parent chain.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Has reports whether name is bound anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Resolve returns the value bound to name, forcing deferred bindings on
// demand. Returns an UnboundError when the name has no binding.
func (s *Scope) Resolve(ctx context.Context, name string) (any, error) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, &UnboundError{Name: name}
	}
	return b.Value(ctx)
}

// Remove deletes the binding for name from this scope only (never from a
// parent). Reports whether a binding was removed.
func (s *Scope) Remove(name string) bool {
	if _, ok := s.bindings[name]; !ok {
		return false
	}
	delete(s.bindings, name)
	return true
}

// Local returns the binding defined in this scope itself, ignoring parents.
func (s *Scope) Local(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Names returns the identifiers bound in this scope itself, ignoring
// parents. The order is not guaranteed.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	return names
}

// Swap installs an engine-owned binding under name and returns a restore
// function that reinstates whatever was there before, or removes the name if
// nothing was. Run the restore under defer so it runs on every exit path,
// success or failure.
//
// Only this scope's own slot is swapped; a shadowed parent binding is
// untouched and becomes visible again after restore removes the name.
func (s *Scope) Swap(name string, v any) (restore func()) {
	prior, existed := s.bindings[name]
	s.DefineOwned(name, v)

	return func() {
		// The slot may have been rebound by a stage since the swap;
		// restore unconditionally reinstates the pre-pipeline state.
		if existed {
			s.bindings[name] = prior
		} else {
			delete(s.bindings, name)
		}
	}
}
