package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	// ErrBadKey marks a stored key that does not parse as a typed key.
	ErrBadKey = errors.New("malformed storage key")

	// ErrCorruptMacro marks a stored macro value that cannot be decoded.
	// Callers treat it like a miss and rebuild.
	ErrCorruptMacro = errors.New("corrupt macro value")

	// ErrCorruptGame marks a stored game record that cannot be decoded.
	ErrCorruptGame = errors.New("corrupt game record")
)
