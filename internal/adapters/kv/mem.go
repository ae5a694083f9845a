package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Mem is an in-memory Store for tests and ephemeral runs.
type Mem struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{data: make(map[string][]byte)}
}

// Get implements Store.
func (m *Mem) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Set implements Store.
func (m *Mem) Set(_ context.Context, key string, val []byte) error {
	cp := make([]byte, len(val))
	copy(cp, val)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cp
	return nil
}

// Scan implements Store.
func (m *Mem) Scan(_ context.Context, pattern string) ([]KeyValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []KeyValue
	for key, val := range m.data {
		ok, err := match(pattern, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		cp := make([]byte, len(val))
		copy(cp, val)
		out = append(out, KeyValue{Key: key, Value: cp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Keys implements Store.
func (m *Mem) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for key := range m.data {
		ok, err := match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Delete implements Store.
func (m *Mem) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements Store.
func (m *Mem) Close() error {
	return nil
}
