package repository

import (
	"context"
	"errors"

	"github.com/okian/dugout/internal/adapters/kv"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

// RawGames persists per-game records, one key per game.
type RawGames struct {
	store kv.Store
	codec *Codec
	log   logger.Logger
}

// NewRawGames builds the raw-game store over a kv backend.
func NewRawGames(store kv.Store, codec *Codec) *RawGames {
	return &RawGames{
		store: store,
		codec: codec,
		log:   logger.Get().Named("rawgames"),
	}
}

// Append stores one validated record. Returns false without writing when
// the game id is already present for the subject and season.
func (r *RawGames) Append(ctx context.Context, rec model.GameRecord) (bool, error) {
	key := RawGameKey{Kind: rec.SubjectKind, Subject: rec.SubjectID, Season: rec.Season, GameID: rec.GameID}
	_, err := r.store.Get(ctx, key.String())
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return false, err
	}
	data, err := r.codec.EncodeGame(rec)
	if err != nil {
		return false, err
	}
	if err := r.store.Set(ctx, key.String(), data); err != nil {
		return false, err
	}
	return true, nil
}

// ScanSeason loads every record for one subject and season, in game-id
// order. Records that no longer decode are logged and skipped so one bad
// value cannot take the whole subject offline.
func (r *RawGames) ScanSeason(ctx context.Context, kind model.SubjectKind, subject string, season int) ([]model.GameRecord, error) {
	entries, err := r.store.Scan(ctx, RawGamePattern(kind, subject, season))
	if err != nil {
		return nil, err
	}
	out := make([]model.GameRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := r.codec.DecodeGame(entry.Value)
		if err != nil {
			r.log.Warn(ctx, "skipping corrupt game record",
				logger.String("key", entry.Key),
				logger.Error(err))
			metrics.RecordErrorByComponent("repository", "corrupt_game")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
