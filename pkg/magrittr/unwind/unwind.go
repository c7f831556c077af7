// Package unwind provides tagged non-local exit signals for pipeline
// evaluation.
//
// A non-local exit ("return out of the enclosing unit") is modeled as an
// error carrying a target boundary identifier. The evaluator installs a
// boundary around new-scope and closure evaluation; a signal targeting that
// boundary is caught there and converted into an ordinary result, while a
// signal targeting any other boundary is re-raised unchanged after scope
// teardown. Current-scope evaluation installs no boundary, so every signal
// propagates to the caller exactly as if it had been raised there.
//
// Signals unwind synchronously through ordinary error returns; there is no
// panic machinery involved.
package unwind

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoBoundary is returned by Return when the context carries no boundary,
// i.e. the caller is not inside a boundary-installing evaluation.
var ErrNoBoundary = errors.New("no unwind boundary in context")

// Boundary identifies one evaluation unit that non-local exits can target.
// Boundaries compare by value; each evaluation of a new-scope pipeline or a
// closure invocation gets a fresh one.
type Boundary struct {
	id string
}

// NewBoundary creates a fresh boundary with a unique identifier.
func NewBoundary() Boundary {
	return Boundary{id: "bnd-" + uuid.New().String()[:8]}
}

// IsZero reports whether the boundary is the zero value (no boundary).
func (b Boundary) IsZero() bool {
	return b.id == ""
}

// String returns the boundary identifier.
func (b Boundary) String() string {
	return b.id
}

// Signal is a non-local exit request targeting a specific boundary,
// carrying the value the evaluation unit should return.
type Signal struct {
	// Boundary is the evaluation unit this signal terminates.
	Boundary Boundary

	// Value becomes the result of the targeted evaluation unit.
	Value any
}

// Error implements the error interface.
func (s *Signal) Error() string {
	return fmt.Sprintf("non-local exit to %s", s.Boundary)
}

// To creates a signal targeting the given boundary.
func To(b Boundary, v any) *Signal {
	return &Signal{Boundary: b, Value: v}
}

// AsSignal extracts a Signal from an error chain, if present.
func AsSignal(err error) (*Signal, bool) {
	var sig *Signal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}

// boundaryKey is the context key for the innermost installed boundary.
type boundaryKey struct{}

// WithBoundary returns a context carrying b as the innermost boundary.
func WithBoundary(ctx context.Context, b Boundary) context.Context {
	return context.WithValue(ctx, boundaryKey{}, b)
}

// BoundaryFrom returns the innermost boundary installed in ctx, or the zero
// boundary if none.
func BoundaryFrom(ctx context.Context) Boundary {
	if b, ok := ctx.Value(boundaryKey{}).(Boundary); ok {
		return b
	}
	return Boundary{}
}

// Return creates a signal targeting the innermost boundary in ctx. Inside
// new-scope or closure evaluation this terminates only that evaluation unit;
// with no boundary installed it returns ErrNoBoundary instead.
//
// Stage functions return the signal as their error:
//
//	func bail(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
//	    return nil, unwind.Return(ctx, args[0])
//	}
func Return(ctx context.Context, v any) error {
	b := BoundaryFrom(ctx)
	if b.IsZero() {
		return ErrNoBoundary
	}
	return To(b, v)
}
