// Package config defines process configuration and its layered loading.
package config

import (
	"context"
	"fmt"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the on-disk store. Ignored when InMemory is set.
	DataDir string `koanf:"data_dir"`

	// InMemory keeps the store entirely in memory.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites makes every store write hit disk before returning.
	SyncWrites bool `koanf:"sync_writes"`

	// RebuildWorkers sets the number of macro rebuild workers.
	RebuildWorkers int `koanf:"rebuild_workers"`

	// RebuildQueueSize bounds the in-memory rebuild queue.
	RebuildQueueSize int `koanf:"rebuild_queue_size"`

	// GCIntervalMinutes sets how often the store's value log collector runs.
	GCIntervalMinutes int `koanf:"gc_interval_minutes"`

	// StatsIntervalSeconds sets how often service gauges refresh.
	StatsIntervalSeconds int `koanf:"stats_interval_seconds"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DataDir:              "data",
		InMemory:             false,
		SyncWrites:           false,
		RebuildWorkers:       runtime.NumCPU() * 2,
		RebuildQueueSize:     4096,
		GCIntervalMinutes:    5,
		StatsIntervalSeconds: 30,
	}
}

// validate checks invariants after all layers have been applied.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
