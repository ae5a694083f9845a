package kv

import (
	"fmt"
	"path"
	"strings"
)

// literalPrefix returns the leading part of pattern up to the first glob
// metacharacter. Stores use it to bound iteration before filtering with
// the full pattern.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// match reports whether key matches the glob pattern. Keys never contain
// '/', so path.Match semantics apply cleanly: '*' and '?' range over the
// whole key.
func match(pattern, key string) (bool, error) {
	ok, err := path.Match(pattern, key)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return ok, nil
}
