// Package dedupe tracks rebuild jobs already pending so duplicate jobs for
// the same macro key collapse into one.
package dedupe

import (
	"context"
	"sync"
)

// Tracker records macro keys with a rebuild in flight.
type Tracker interface {
	// MarkPending atomically checks whether key already has a rebuild
	// pending and records it if not. Returns true if it was already
	// pending, false if it was newly recorded.
	MarkPending(ctx context.Context, key string) bool

	// Clear removes key once its job leaves the queue, allowing the next
	// append to schedule a fresh job. Clearing an unknown key is a no-op.
	Clear(ctx context.Context, key string)

	Size() int64
}

// inMemoryTracker implements Tracker with a mutex-guarded set. The pending
// set is bounded in practice by the rebuild queue capacity plus in-flight
// jobs, so no eviction policy is needed.
type inMemoryTracker struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewInMemoryTracker creates an empty in-memory pending tracker.
func NewInMemoryTracker() Tracker {
	return &inMemoryTracker{pending: make(map[string]struct{})}
}

func (t *inMemoryTracker) MarkPending(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[key]; exists {
		return true
	}
	t.pending[key] = struct{}{}
	return false
}

func (t *inMemoryTracker) Clear(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, key)
}

func (t *inMemoryTracker) Size() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.pending))
}
