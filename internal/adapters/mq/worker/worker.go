// Package worker runs the asynchronous rebuild pool: workers drain the job
// queue and refold macros through the engine.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/dugout/internal/adapters/mq/queue"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Rebuilder refolds one macro from raw records.
type Rebuilder interface {
	Rebuild(ctx context.Context, kind model.SubjectKind, subject string, season int) (*split.Tree, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Tracker lifts the pending mark for a job so later appends can enqueue a
// fresh rebuild.
type Tracker interface {
	Clear(ctx context.Context, key string)
}

// Worker processes rebuild jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing rebuild jobs.
type InMemoryWorker struct {
	queue     Queue
	rebuilder Rebuilder
	tracker   Tracker
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, rebuilder Rebuilder, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		rebuilder: rebuilder,
		tracker:   tracker,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing rebuild job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single rebuild job.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	// The pending mark lifts the moment the job leaves the queue: a record
	// appended mid-rebuild then enqueues a fresh job instead of being lost.
	w.tracker.Clear(ctx, job.Key())

	start := time.Now()
	tree, err := w.rebuilder.Rebuild(ctx, job.Kind, job.Subject, job.Season)
	metrics.RecordWorkerJobLatency(float64(time.Since(start).Microseconds()) / 1e3)

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rebuild_error")
		w.logger.Error(ctx, "rebuild failed",
			logger.String("job", job.Key()),
			logger.Error(err),
		)
		return fmt.Errorf("rebuild %s: %w", job.Key(), err)
	}

	w.logger.Debug(ctx, "rebuild complete",
		logger.String("job", job.Key()),
		logger.Int("games", tree.GameCount),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	rebuilder Rebuilder
	tracker   Tracker

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, rebuilder Rebuilder, tracker Tracker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		rebuilder: rebuilder,
		tracker:   tracker,
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			rebuilder,
			tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateActiveWorkers(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Shutdown gracefully shuts down the entire worker pool. The queue is
// closed first so workers drain what is already enqueued, then each worker
// is waited on up to the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Wait for all workers to drain and finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateActiveWorkers(0)
	return nil
}
