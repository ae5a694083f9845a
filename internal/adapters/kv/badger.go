package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

const (
	defaultGCInterval     = 5 * time.Minute
	defaultGCDiscardRatio = 0.5
	dataDirMode           = 0o750
)

// BadgerOption configures a Badger store.
type BadgerOption func(*Badger)

// WithDataDir sets the on-disk location of the database. An empty dir
// selects in-memory mode.
func WithDataDir(dir string) BadgerOption {
	return func(b *Badger) {
		b.dir = dir
	}
}

// WithInMemory forces in-memory mode regardless of the data dir.
func WithInMemory() BadgerOption {
	return func(b *Badger) {
		b.inMemory = true
	}
}

// WithSyncWrites toggles synchronous writes. On by default; turning it
// off trades durability for write throughput.
func WithSyncWrites(sync bool) BadgerOption {
	return func(b *Badger) {
		b.syncWrites = sync
	}
}

// WithGCInterval sets how often the value log garbage collector runs.
// Zero disables collection.
func WithGCInterval(interval time.Duration) BadgerOption {
	return func(b *Badger) {
		b.gcInterval = interval
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) BadgerOption {
	return func(b *Badger) {
		b.log = l
	}
}

// Badger is a Store backed by a badger database.
type Badger struct {
	db         *badger.DB
	dir        string
	inMemory   bool
	syncWrites bool
	gcInterval time.Duration
	stopGC     chan struct{}
	gcDone     chan struct{}
	log        logger.Logger
}

// NewBadger opens the database and starts the value log GC loop for
// on-disk stores.
func NewBadger(opts ...BadgerOption) (*Badger, error) {
	b := &Badger{
		syncWrites: true,
		gcInterval: defaultGCInterval,
		log:        logger.Get().Named("kv"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.dir == "" {
		b.inMemory = true
	}

	var options badger.Options
	if b.inMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(b.dir, dataDirMode); err != nil {
			return nil, fmt.Errorf("create data dir %q: %w", b.dir, err)
		}
		options = badger.DefaultOptions(b.dir).WithSyncWrites(b.syncWrites)
	}
	options = options.
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: b.log})

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %s", ErrUnavailable, b.dir, err)
	}
	b.db = db

	if !b.inMemory && b.gcInterval > 0 {
		b.stopGC = make(chan struct{})
		b.gcDone = make(chan struct{})
		go b.runGC()
	}
	return b, nil
}

// Get implements Store.
func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	metrics.RecordStoreReadLatency(msSince(start))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %q: %s", ErrUnavailable, key, err)
	}
	return val, nil
}

// Set implements Store.
func (b *Badger) Set(ctx context.Context, key string, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
	metrics.RecordStoreWriteLatency(msSince(start))
	if err != nil {
		return fmt.Errorf("%w: set %q: %s", ErrUnavailable, key, err)
	}
	return nil
}

// Scan implements Store. Badger iterates in key order, so results come
// back sorted without an extra pass.
func (b *Badger) Scan(ctx context.Context, pattern string) ([]KeyValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var out []KeyValue
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(literalPrefix(pattern))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			ok, err := match(pattern, key)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, KeyValue{Key: key, Value: val})
		}
		return nil
	})
	metrics.RecordStoreScanLatency(msSince(start))
	if err != nil {
		return nil, scanError("scan", pattern, err)
	}
	return out, nil
}

// Keys implements Store. Values are never prefetched.
func (b *Badger) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(literalPrefix(pattern))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			ok, err := match(pattern, key)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, key)
			}
		}
		return nil
	})
	metrics.RecordStoreScanLatency(msSince(start))
	if err != nil {
		return nil, scanError("list keys", pattern, err)
	}
	return out, nil
}

// Delete implements Store.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	metrics.RecordStoreWriteLatency(msSince(start))
	if err != nil {
		return fmt.Errorf("%w: delete %q: %s", ErrUnavailable, key, err)
	}
	return nil
}

// Close stops the GC loop and closes the database.
func (b *Badger) Close() error {
	if b.stopGC != nil {
		close(b.stopGC)
		<-b.gcDone
	}
	return b.db.Close()
}

// runGC reclaims value log space until a pass rewrites nothing.
func (b *Badger) runGC() {
	defer close(b.gcDone)
	ticker := time.NewTicker(b.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			for {
				err := b.db.RunValueLogGC(defaultGCDiscardRatio)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						b.log.Warn(context.Background(), "value log gc failed", logger.Error(err))
					}
					break
				}
			}
		}
	}
}

// scanError keeps pattern and context errors intact and folds everything
// else into ErrUnavailable.
func scanError(op, pattern string, err error) error {
	if errors.Is(err, ErrBadPattern) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s %q: %s", ErrUnavailable, op, pattern, err)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1e3
}

// badgerLogger routes badger's internal logging through the component
// logger. Badger is chatty at info, so info lands at debug.
type badgerLogger struct {
	log logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(context.Background(), trimmed(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(context.Background(), trimmed(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(context.Background(), trimmed(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(context.Background(), trimmed(format, args...))
}

func trimmed(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
