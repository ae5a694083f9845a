// Package macro implements the query engine over persisted split trees:
// transparent get-or-build on macro misses, path queries with compaction,
// subject discovery, and record ingestion.
package macro

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/dugout/internal/adapters/kv"
	"github.com/okian/dugout/internal/adapters/repository"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/internal/domain/subject"
	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

// MacroStore is the persisted-macro surface the engine consumes.
type MacroStore interface {
	Get(ctx context.Context, key repository.MacroKey) (*split.Tree, error)
	Put(ctx context.Context, tree *split.Tree) error
	List(ctx context.Context, kind model.SubjectKind, season int, filter string) ([]repository.MacroKey, error)
}

// GameStore is the raw-game surface the engine consumes.
type GameStore interface {
	Append(ctx context.Context, rec model.GameRecord) (bool, error)
	ScanSeason(ctx context.Context, kind model.SubjectKind, subject string, season int) ([]model.GameRecord, error)
}

// Engine answers macro queries, rebuilding trees from raw records when the
// stored copy is absent or unreadable.
type Engine struct {
	macros MacroStore
	games  GameStore
	flight singleflight.Group
	logger logger.Logger
}

// New creates the engine with configuration options.
func New(macros MacroStore, games GameStore, opts ...Option) *Engine {
	e := &Engine{
		macros: macros,
		games:  games,
		logger: logger.Get().Named("engine"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// GetOrBuild returns the macro tree for one subject and season, rebuilding
// and persisting it on a miss. A subject with no recorded games yields an
// empty tree and nil error; empty trees are never persisted. Returned trees
// are shared between callers and must be treated as read-only.
func (e *Engine) GetOrBuild(ctx context.Context, kind model.SubjectKind, subjectName string, season int) (*split.Tree, error) {
	key := repository.MacroKey{Kind: kind, Subject: subject.Canonical(subjectName), Season: season}

	tree, err := e.macros.Get(ctx, key)
	if err == nil {
		metrics.RecordMacroHit()
		return tree, nil
	}
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case errors.Is(err, repository.ErrCorruptMacro):
		e.logger.Warn(ctx, "stored macro unreadable, rebuilding",
			logger.String("key", key.String()),
			logger.Error(err))
	default:
		return nil, err
	}

	metrics.RecordMacroMiss()
	return e.sharedRebuild(ctx, key)
}

// GetPath resolves a dot-delimited split path inside the subject's macro
// tree and returns a compacted projection of that node. Malformed paths are
// rejected before any store access.
func (e *Engine) GetPath(ctx context.Context, kind model.SubjectKind, subjectName string, season int, path string, opts ...split.CompactOption) (*split.Node, error) {
	if _, err := split.ParsePath(path); err != nil {
		return nil, err
	}
	tree, err := e.GetOrBuild(ctx, kind, subjectName, season)
	if err != nil {
		return nil, err
	}
	node, err := tree.Resolve(path)
	if err != nil {
		return nil, err
	}
	// Compact copies, so responses never alias the shared tree.
	return split.Compact(node, opts...), nil
}

// ListSubjects returns the descriptors of persisted macros, narrowed by
// kind, season, and a substring filter. The filter is canonicalized the
// same way subjects are, so "O'Hoppe" finds "logan_ohoppe".
func (e *Engine) ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]repository.MacroKey, error) {
	filter := ""
	if q != "" {
		filter = subject.Canonical(q)
	}
	return e.macros.List(ctx, kind, season, filter)
}

// Rebuild unconditionally refolds one macro from raw records, sharing any
// rebuild already in flight for the same key.
func (e *Engine) Rebuild(ctx context.Context, kind model.SubjectKind, subjectName string, season int) (*split.Tree, error) {
	key := repository.MacroKey{Kind: kind, Subject: subject.Canonical(subjectName), Season: season}
	return e.sharedRebuild(ctx, key)
}

// AppendGame normalizes and validates one record, then writes it to raw
// storage. The returned record carries the canonical subject and pitcher
// names; added is false when the game id was already stored.
func (e *Engine) AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error) {
	rec.SubjectID = subject.Canonical(rec.SubjectID)
	if rec.OppPitcher != "" {
		rec.OppPitcher = subject.Canonical(rec.OppPitcher)
	}
	if err := rec.Validate(); err != nil {
		metrics.RecordGameRejected()
		return model.GameRecord{}, false, err
	}

	added, err := e.games.Append(ctx, rec)
	if err != nil {
		return model.GameRecord{}, false, err
	}
	if added {
		metrics.RecordGameAppended()
	}
	return rec, added, nil
}

// sharedRebuild funnels concurrent rebuilds of one key into a single
// execution. Waiters detach on their own context without stopping the
// rebuild they shared.
func (e *Engine) sharedRebuild(ctx context.Context, key repository.MacroKey) (*split.Tree, error) {
	ch := e.flight.DoChan(key.String(), func() (any, error) {
		return e.rebuild(ctx, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*split.Tree), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rebuild scans raw records, folds them, and persists the result. The fold
// is deterministic, so a rebuild writes byte-identical values for the same
// record set. A cancelled context aborts before the write; a partial tree
// is never stored.
func (e *Engine) rebuild(ctx context.Context, key repository.MacroKey) (*split.Tree, error) {
	start := time.Now()

	records, err := e.scanVariants(ctx, key)
	if err != nil {
		metrics.RecordRebuildError()
		return nil, err
	}

	tree := split.New(key.Kind, key.Subject, key.Season)
	for _, rec := range records {
		tree.Fold(rec)
	}

	metrics.RecordRebuild()
	metrics.RecordRebuildLatency(msSince(start))
	metrics.RecordRebuildGames(tree.GameCount)

	if tree.GameCount == 0 {
		return tree, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.macros.Put(ctx, tree); err != nil {
		metrics.RecordRebuildError()
		return nil, err
	}

	e.logger.Debug(ctx, "macro rebuilt",
		logger.String("key", key.String()),
		logger.Int("games", tree.GameCount))
	return tree, nil
}

// scanVariants tries each stored spelling of the subject in order and
// returns the first variant's records.
func (e *Engine) scanVariants(ctx context.Context, key repository.MacroKey) ([]model.GameRecord, error) {
	for _, variant := range subject.Variants(key.Subject) {
		records, err := e.games.ScanSeason(ctx, key.Kind, variant, key.Season)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1e3
}
