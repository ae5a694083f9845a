package repository

import (
	"context"
	"strings"

	"github.com/okian/dugout/internal/adapters/kv"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/pkg/logger"
	"github.com/okian/dugout/pkg/metrics"
)

// Macros persists folded macro trees, one value per subject and season.
type Macros struct {
	store kv.Store
	codec *Codec
	log   logger.Logger
}

// NewMacros builds the macro store over a kv backend.
func NewMacros(store kv.Store, codec *Codec) *Macros {
	return &Macros{
		store: store,
		codec: codec,
		log:   logger.Get().Named("macros"),
	}
}

// Get loads one macro tree. kv.ErrNotFound passes through untouched so the
// engine can treat absence as a rebuild trigger; undecodable values come
// back as ErrCorruptMacro for the same reason.
func (m *Macros) Get(ctx context.Context, key MacroKey) (*split.Tree, error) {
	data, err := m.store.Get(ctx, key.String())
	if err != nil {
		return nil, err
	}
	return m.codec.DecodeTree(data)
}

// Put stores a macro tree under its own key and records the encoded size.
func (m *Macros) Put(ctx context.Context, tree *split.Tree) error {
	key := MacroKey{Kind: tree.SubjectKind, Subject: tree.SubjectID, Season: tree.Season}
	data, err := m.codec.EncodeTree(tree)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, key.String(), data); err != nil {
		return err
	}
	metrics.RecordMacroBytes(len(data))
	return nil
}

// List enumerates macro keys without reading values and parses them into
// descriptors. A non-empty filter keeps only subjects containing it.
// Malformed keys are logged and skipped rather than failing the listing.
func (m *Macros) List(ctx context.Context, kind model.SubjectKind, season int, filter string) ([]MacroKey, error) {
	keys, err := m.store.Keys(ctx, MacroPattern(kind, season))
	if err != nil {
		return nil, err
	}
	out := make([]MacroKey, 0, len(keys))
	for _, raw := range keys {
		key, err := ParseMacroKey(raw)
		if err != nil {
			m.log.Warn(ctx, "skipping malformed macro key",
				logger.String("key", raw),
				logger.Error(err))
			metrics.RecordErrorByComponent("repository", "bad_key")
			continue
		}
		if filter != "" && !strings.Contains(key.Subject, filter) {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}
