package split

import "errors"

// Sentinel kinds for path resolution errors.
var (
	// ErrPathNotFound marks a structurally valid path that addresses no
	// node in this tree. Distinct from the tree itself being absent.
	ErrPathNotFound = errors.New("split path not found")

	// ErrMalformedPath marks a path that could never address a node in
	// any tree, such as an empty segment or an unknown dimension name.
	ErrMalformedPath = errors.New("malformed split path")
)
