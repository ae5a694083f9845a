package split

import (
	"fmt"
	"strings"
)

// ParsePath splits a dot-delimited query path and validates its shape:
// segments alternate dimension name and dimension value, no segment is
// empty, and every dimension name is one of the known dimensions. The
// empty path is valid and addresses the root. Shape violations wrap
// ErrMalformedPath and can be detected without loading any tree.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrMalformedPath, path)
		}
	}
	if len(segs)%2 != 0 {
		return nil, fmt.Errorf("%w: dimension %q has no value", ErrMalformedPath, segs[len(segs)-1])
	}
	for i := 0; i < len(segs); i += 2 {
		if !knownDimension(segs[i]) {
			return nil, fmt.Errorf("%w: unknown dimension %q", ErrMalformedPath, segs[i])
		}
	}
	return segs, nil
}

// Resolve walks the tree along a dot-delimited path and returns the node
// it addresses. A well-formed path that reaches a dimension or value this
// tree never materialized wraps ErrPathNotFound.
func (t *Tree) Resolve(path string) (*Node, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	n := t.Root
	for i := 0; i < len(segs); i += 2 {
		dim := n.dimension(segs[i])
		if dim == nil {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(segs[:i+1], "."))
		}
		child, ok := dim[segs[i+1]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(segs[:i+2], "."))
		}
		n = child
	}
	return n, nil
}
