// Package split implements the nested situational split tree: folding
// per-game records into compound splits, resolving dot-delimited query
// paths, and compacting trees for transport.
package split

import (
	"github.com/okian/dugout/internal/domain/model"
)

// Tree is the macro split tree for one subject and season. It is built in
// one pass over the subject's game records and replaced wholesale on
// rebuild, never patched.
type Tree struct {
	SubjectID   string            `json:"subject_id"`
	SubjectKind model.SubjectKind `json:"subject_kind"`
	Season      int               `json:"season"`
	GameCount   int               `json:"game_count"`
	Root        *Node             `json:"root"`
}

// New returns an empty tree: the structurally valid answer for a subject
// with no recorded games. Empty trees are displayable but never persisted.
func New(kind model.SubjectKind, subject string, season int) *Tree {
	return &Tree{
		SubjectID:   subject,
		SubjectKind: kind,
		Season:      season,
		Root:        &Node{},
	}
}

// Fold accumulates one game record into every split the record touches:
// the root, the location split, the opposing-handedness and opposing-team
// splits (each with a nested location split), and for player subjects the
// opposing-pitcher split. Folding a game id a node has already seen is a
// no-op for that node, and fold order never changes the resulting tree.
func (t *Tree) Fold(rec model.GameRecord) {
	loc := string(model.ParseLocation(string(rec.Location)))
	hand := string(model.ParseHand(string(rec.OppPitcherHand)))

	t.Root.absorb(&rec)

	var n *Node
	t.Root.ByLocation, n = ensureChild(t.Root.ByLocation, loc)
	n.absorb(&rec)

	t.Root.VsHandedness, n = ensureChild(t.Root.VsHandedness, hand)
	n.absorbNested(&rec, loc)

	t.Root.VsTeams, n = ensureChild(t.Root.VsTeams, rec.Opponent)
	n.absorbNested(&rec, loc)

	if rec.SubjectKind == model.KindPlayer && rec.OppPitcher != "" {
		t.Root.VsPitchers, n = ensureChild(t.Root.VsPitchers, rec.OppPitcher)
		n.absorbNested(&rec, loc)
	}

	t.GameCount = len(t.Root.Games)
}
