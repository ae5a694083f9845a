package repository

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
)

// Codec encodes stored values. Macro trees are JSON compressed with zstd
// (compound splits repeat stat keys heavily and compress well); game
// records stay plain JSON. Encoder settings are fixed so identical trees
// encode to identical bytes.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec builds the shared codec. The zstd encoder and decoder are safe
// for concurrent EncodeAll/DecodeAll use.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// EncodeTree serializes one macro tree.
func (c *Codec) EncodeTree(t *split.Tree) ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode macro: %w", err)
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeTree inverts EncodeTree. Values that do not decompress or do not
// parse come back as ErrCorruptMacro so callers can fall back to a rebuild.
func (c *Codec) DecodeTree(data []byte) (*split.Tree, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptMacro, err)
	}
	var t split.Tree
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptMacro, err)
	}
	return &t, nil
}

// EncodeGame serializes one game record.
func (c *Codec) EncodeGame(rec model.GameRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode game record: %w", err)
	}
	return data, nil
}

// DecodeGame inverts EncodeGame.
func (c *Codec) DecodeGame(data []byte) (model.GameRecord, error) {
	var rec model.GameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.GameRecord{}, fmt.Errorf("%w: %s", ErrCorruptGame, err)
	}
	return rec, nil
}
