package script

import "errors"

// Errors returned by the host.
var (
	// ErrHostClosed is returned when using a closed host.
	ErrHostClosed = errors.New("script host is closed")

	// ErrNotFunction is returned when a named global is not a Lua function.
	ErrNotFunction = errors.New("not a lua function")
)
