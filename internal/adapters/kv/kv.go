// Package kv defines the key/value contract the split stores build on,
// with a persistent badger-backed implementation and an in-memory one.
package kv

import "context"

// KeyValue is one scanned entry.
type KeyValue struct {
	Key   string
	Value []byte
}

// Store is the minimal key/value surface the repositories need. Scan
// patterns are glob-style: the literal prefix up to the first
// metacharacter selects the iteration range, the full pattern filters it.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores val at key, overwriting any previous value.
	Set(ctx context.Context, key string, val []byte) error

	// Scan returns all entries whose keys match pattern, in key order.
	Scan(ctx context.Context, pattern string) ([]KeyValue, error)

	// Keys returns matching keys in key order without reading values.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store.
	Close() error
}
