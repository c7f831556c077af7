package magrittr

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline building and compilation.
var (
	// ErrEmptyPipeline indicates Compile() was called with no stages.
	ErrEmptyPipeline = errors.New("pipeline has no stages")

	// ErrInvalidPlaceholder indicates an empty or whitespace placeholder name.
	ErrInvalidPlaceholder = errors.New("invalid placeholder name")

	// ErrPlaceholderCollision indicates the placeholder name collides with a
	// stage's own bound names.
	ErrPlaceholderCollision = errors.New("placeholder name collides with stage binding")

	// ErrMultiReference indicates a stage references the placeholder more
	// than once while multi-reference is disallowed.
	ErrMultiReference = errors.New("stage references placeholder more than once")

	// ErrUnknownStrategy indicates an unrecognized expansion strategy name.
	ErrUnknownStrategy = errors.New("unknown expansion strategy")

	// ErrUnknownScopeKind indicates an unrecognized scope kind name.
	ErrUnknownScopeKind = errors.New("unknown scope kind")

	// ErrInvalidStageConfig indicates a malformed stage entry in a
	// declarative pipeline document: duplicate or whitespace stage IDs,
	// missing id and fn, or the wrong entry type.
	ErrInvalidStageConfig = errors.New("invalid stage configuration")

	// ErrStageNotRegistered indicates a declarative pipeline references a
	// stage function missing from the registry.
	ErrStageNotRegistered = errors.New("stage function not registered")
)

// Sentinel errors for evaluation.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrCallerScopeRequired indicates current-scope evaluation was
	// requested without a caller scope to borrow.
	ErrCallerScopeRequired = errors.New("caller scope required for current-scope evaluation")

	// ErrNotClosureKind indicates Closure() was called on a pipeline not
	// compiled with ScopeClosure.
	ErrNotClosureKind = errors.New("pipeline not compiled for closure scope")

	// ErrMaxDepth indicates nested evaluation exceeded the configured
	// depth limit.
	ErrMaxDepth = errors.New("exceeded maximum evaluation depth")
)

// ConfigError reports an invalid compilation configuration: placeholder
// collisions, zero-stage pipelines, or multi-reference violations. Detected
// at rewrite time, before any stage executes.
type ConfigError struct {
	// Option is the configuration surface at fault (e.g. "placeholder_name").
	Option string
	// Detail describes the specific violation.
	Detail string
	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("config %s: %s: %v", e.Option, e.Detail, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Option, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StageError wraps an error with stage context.
// It provides information about which stage failed and what operation was
// attempted. Stage failures are always propagated to the caller after scope
// teardown runs; never silently swallowed.
type StageError struct {
	// StageID is the identifier of the stage that failed.
	StageID string
	// Op is the operation that failed (e.g. "execute", "resolve", "guard").
	Op string
	// Err is the underlying error from the stage.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s: %v", e.StageID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StageError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from stage execution.
// It includes the stack trace for debugging.
type PanicError struct {
	// StageID is the identifier of the stage that panicked.
	StageID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("stage %s panicked: %v", e.StageID, e.Value)
}

// DepthError provides context when the evaluation depth limit is exceeded.
// Only the nested strategy grows with pipeline length; eager and lazy
// evaluation stay at constant depth.
type DepthError struct {
	// Max is the configured depth limit.
	Max int
	// StageID is the stage whose expansion exceeded the limit.
	StageID string
}

// Error implements the error interface.
func (e *DepthError) Error() string {
	return fmt.Sprintf("exceeded maximum evaluation depth (%d) at stage %s", e.Max, e.StageID)
}

// Unwrap returns ErrMaxDepth for errors.Is support.
func (e *DepthError) Unwrap() error {
	return ErrMaxDepth
}
