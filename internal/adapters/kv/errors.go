package kv

import "errors"

var (
	// ErrNotFound marks a key with no value. Absence is an expected
	// outcome for callers and never doubles as ErrUnavailable.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable marks a store that could not serve the operation.
	ErrUnavailable = errors.New("store unavailable")

	// ErrBadPattern marks a scan pattern that cannot be compiled.
	ErrBadPattern = errors.New("bad scan pattern")
)
