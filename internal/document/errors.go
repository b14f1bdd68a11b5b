package document

import "errors"

// Errors returned by document operations.
var (
	// ErrOffsetOutOfRange indicates a position is outside the document.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates an invalid range (e.g., end < start).
	ErrRangeInvalid = errors.New("invalid range")

	// ErrViewClosed indicates an edit through a view that was closed.
	ErrViewClosed = errors.New("view is closed")
)
