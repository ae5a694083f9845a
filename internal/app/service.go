// Package service wires the store, engine, dedupe tracker, queue and worker
// pool into one unit that implements the dependencies required by the HTTP
// API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dugout/internal/adapters/kv"
	jobqueue "github.com/okian/dugout/internal/adapters/mq/queue"
	workerpool "github.com/okian/dugout/internal/adapters/mq/worker"
	repository "github.com/okian/dugout/internal/adapters/repository"
	"github.com/okian/dugout/internal/domain/dedupe"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/internal/domain/types"
	"github.com/okian/dugout/internal/macro"
	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

const (
	defaultQueueSize     = 4096
	defaultGCInterval    = 5 * time.Minute
	defaultStatsInterval = 30 * time.Second
	gaugeRefreshTimeout  = 10 * time.Second
)

// Service implements the API dependencies for the split macro system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *kv.Badger
	macros   *repository.Macros
	rawGames *repository.RawGames
	engine   *macro.Engine
	tracker  dedupe.Tracker
	jobQueue jobqueue.Queue
	pool     *workerpool.Pool

	// Configuration
	dataDir       string
	inMemory      bool
	syncWrites    bool
	gcInterval    time.Duration
	workerCount   int
	queueSize     int
	statsInterval time.Duration

	// State
	started      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup
	subjectCount atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the on-disk location of the store.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithInMemory keeps the store entirely in memory. Nothing survives a
// restart; raw records and macros are rebuilt from scratch.
func WithInMemory() Option {
	return func(s *Service) {
		s.inMemory = true
	}
}

// WithSyncWrites toggles synchronous store writes.
func WithSyncWrites(sync bool) Option {
	return func(s *Service) {
		s.syncWrites = sync
	}
}

// WithGCInterval sets how often the store's value log collector runs.
func WithGCInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.gcInterval = interval
		}
	}
}

// WithWorkerCount sets the number of rebuild workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the rebuild queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStatsInterval sets how often service gauges are refreshed.
func WithStatsInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.statsInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:       "data",
		workerCount:   runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:     defaultQueueSize,
		gcInterval:    defaultGCInterval,
		statsInterval: defaultStatsInterval,
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting dugout service...")

	badgerOpts := []kv.BadgerOption{
		kv.WithDataDir(s.dataDir),
		kv.WithSyncWrites(s.syncWrites),
		kv.WithGCInterval(s.gcInterval),
	}
	if s.inMemory {
		badgerOpts = append(badgerOpts, kv.WithInMemory())
	}
	store, err := kv.NewBadger(badgerOpts...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	codec, err := repository.NewCodec()
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("init codec: %w", err)
	}

	s.macros = repository.NewMacros(store, codec)
	s.rawGames = repository.NewRawGames(store, codec)
	s.engine = macro.New(s.macros, s.rawGames)
	s.tracker = dedupe.NewInMemoryTracker()
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)

	// Create and start the rebuild worker pool
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s.tracker)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.refreshLoop()

	s.started = true
	s.logger.Info(ctx, "dugout service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("inMemory", s.inMemory),
	)

	return nil
}

// Stop gracefully shuts down the service. The queue closes first so workers
// drain jobs already accepted before the store goes away.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping dugout service...")

	close(s.stopCh)
	s.wg.Wait()

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "dugout service stopped")
}

// MarkPending atomically checks whether a rebuild for key is already pending
// and records it if not. Returns true if it was already pending.
func (s *Service) MarkPending(ctx context.Context, key string) bool {
	return s.tracker.MarkPending(ctx, key)
}

// Clear lifts the pending mark for key so a later append can schedule a
// fresh rebuild.
func (s *Service) Clear(ctx context.Context, key string) {
	s.tracker.Clear(ctx, key)
}

// Size returns the number of macros with a rebuild currently pending.
func (s *Service) Size() int64 {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.Size()
}

// Enqueue submits a rebuild job for asynchronous processing. Returns false
// when the queue is full or closed.
func (s *Service) Enqueue(ctx context.Context, j macro.Job) bool {
	return s.jobQueue.Enqueue(ctx, j)
}

// AppendGame normalizes, validates and durably stores one game record.
func (s *Service) AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error) {
	return s.engine.AppendGame(ctx, rec)
}

// GetOrBuild returns the macro tree for one subject and season, rebuilding
// it from raw records on a miss.
func (s *Service) GetOrBuild(ctx context.Context, kind model.SubjectKind, subject string, season int) (*split.Tree, error) {
	return s.engine.GetOrBuild(ctx, kind, subject, season)
}

// GetPath resolves a dot-delimited split path inside the subject's macro.
func (s *Service) GetPath(ctx context.Context, kind model.SubjectKind, subject string, season int, path string, opts ...split.CompactOption) (*split.Node, error) {
	return s.engine.GetPath(ctx, kind, subject, season, path, opts...)
}

// ListSubjects returns descriptors for persisted macros.
func (s *Service) ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]types.Descriptor, error) {
	keys, err := s.engine.ListSubjects(ctx, kind, season, q)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	descriptors := make([]types.Descriptor, len(keys))
	for i, key := range keys {
		descriptors[i] = types.Descriptor{
			Kind:    key.Kind,
			Subject: key.Subject,
			Season:  key.Season,
		}
	}

	return descriptors, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"worker_count":   s.workerCount,
		"queue_capacity": s.queueSize,
		"in_memory":      s.inMemory,
		"data_dir":       s.dataDir,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queue_size"] = queueLen
		stats["pending_rebuilds"] = s.tracker.Size()
		stats["subjects_total"] = s.subjectCount.Load()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}

// refreshLoop keeps the subject and queue gauges current between requests.
func (s *Service) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.refreshGauges()
		}
	}
}

// refreshGauges counts persisted macros across all kinds and seasons. The
// count is cached so GetStats never pays for a full key scan.
func (s *Service) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), gaugeRefreshTimeout)
	defer cancel()

	keys, err := s.engine.ListSubjects(ctx, "", 0, "")
	if err != nil {
		s.logger.Warn(ctx, "subject gauge refresh failed", logger.Error(err))
		return
	}
	s.subjectCount.Store(int64(len(keys)))
	metrics.UpdateSubjectsTotal(len(keys))
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
}
