package fold

import (
	"errors"
	"fmt"
)

// Errors returned by fold operations.
var (
	// ErrInvalidSpec indicates an unregistered spec id or alias, or an
	// attempt to register the reserved id "all".
	ErrInvalidSpec = errors.New("invalid folding spec")

	// ErrPreconditionViolation indicates a call that can never succeed as
	// written, such as folding without a spec.
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrInvalidRange indicates end < start.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidProperty indicates an unknown property key or a value of the
	// wrong type.
	ErrInvalidProperty = errors.New("invalid spec property")

	// ErrViewMismatch indicates a view over a different buffer.
	ErrViewMismatch = errors.New("view does not share the engine's buffer")

	// ErrSessionClosed indicates use of a search session after Close.
	ErrSessionClosed = errors.New("search session is closed")
)

// SpecError records a failed operation on a folding spec.
type SpecError struct {
	Op   string
	Spec SpecID
	Err  error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Spec, e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}
