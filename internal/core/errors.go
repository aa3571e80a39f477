package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these; the typed errors below wrap
// them with context.
var (
	// ErrNotFound indicates an unknown arena, agent, pack or match.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition indicates the operation is not allowed in the current state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrGeneration indicates a text generation call failed upstream.
	ErrGeneration = errors.New("generation failed")
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PreconditionError reports an operation rejected by the arena state.
// The arena is left unchanged.
type PreconditionError struct {
	Op     string
	Reason string
}

// Preconditionf creates a PreconditionError with a formatted reason.
func Preconditionf(op, format string, args ...any) *PreconditionError {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is matches ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// GenerationError reports a failed generation call. Step names where in the
// pipeline it happened, e.g. "rebuttal" or "judge logician".
type GenerationError struct {
	Step    string
	AgentID string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.AgentID != "" {
		return fmt.Sprintf("generation failed at %s for agent %s: %v", e.Step, e.AgentID, e.Err)
	}
	return fmt.Sprintf("generation failed at %s: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches ErrGeneration.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
