package split

import (
	"sort"

	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/stats"
)

// Dimension names addressable in query paths.
const (
	DimLocation   = "by_location"
	DimHandedness = "vs_handedness"
	DimTeams      = "vs_teams"
	DimPitchers   = "vs_pitchers"
)

// Stats is the finalized stat pair carried by every node.
type Stats struct {
	Batting  stats.Batting  `json:"batting"`
	Pitching stats.Pitching `json:"pitching"`
}

// Node is one split: finalized stats, the set of games that contributed,
// and nested dimension maps. A dimension map is only materialized once a
// record touches it; empty dimensions never appear in the encoding.
type Node struct {
	Stats Stats `json:"stats"`

	// Games is the sorted set of contributing game ids. Compacted
	// projections replace it with GameCount; truncated projections mark
	// removed depth with Truncated.
	Games     []string `json:"games,omitempty"`
	GameCount *int     `json:"game_count,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`

	ByLocation   map[string]*Node `json:"by_location,omitempty"`
	VsHandedness map[string]*Node `json:"vs_handedness,omitempty"`
	VsTeams      map[string]*Node `json:"vs_teams,omitempty"`
	VsPitchers   map[string]*Node `json:"vs_pitchers,omitempty"`
}

// absorb folds one record's counting lines into the node and re-finalizes
// its rates. A game id already present in the node's game set contributes
// nothing.
func (n *Node) absorb(rec *model.GameRecord) {
	if n.hasGame(rec.GameID) {
		return
	}
	n.insertGame(rec.GameID)
	n.Stats.Batting.BattingLine.Add(rec.Batting)
	n.Stats.Pitching.PitchingLine.Add(rec.Pitching)
	n.Stats.Batting = stats.FinalizeBatting(n.Stats.Batting.BattingLine)
	n.Stats.Pitching = stats.FinalizePitching(n.Stats.Pitching.PitchingLine)
}

func (n *Node) hasGame(id string) bool {
	i := sort.SearchStrings(n.Games, id)
	return i < len(n.Games) && n.Games[i] == id
}

// insertGame keeps the game set sorted so encoding stays order-independent.
func (n *Node) insertGame(id string) {
	i := sort.SearchStrings(n.Games, id)
	n.Games = append(n.Games, "")
	copy(n.Games[i+1:], n.Games[i:])
	n.Games[i] = id
}

// dimension returns the named child dimension map, or nil when this node
// does not carry it.
func (n *Node) dimension(name string) map[string]*Node {
	switch name {
	case DimLocation:
		return n.ByLocation
	case DimHandedness:
		return n.VsHandedness
	case DimTeams:
		return n.VsTeams
	case DimPitchers:
		return n.VsPitchers
	default:
		return nil
	}
}

// absorbNested folds the record into the node and into its nested
// location split.
func (n *Node) absorbNested(rec *model.GameRecord, loc string) {
	n.absorb(rec)
	var c *Node
	n.ByLocation, c = ensureChild(n.ByLocation, loc)
	c.absorb(rec)
}

func (n *Node) hasChildren() bool {
	return len(n.ByLocation)+len(n.VsHandedness)+len(n.VsTeams)+len(n.VsPitchers) > 0
}

func knownDimension(name string) bool {
	switch name {
	case DimLocation, DimHandedness, DimTeams, DimPitchers:
		return true
	default:
		return false
	}
}

// ensureChild returns the child node for key, materializing the map and
// the node on first touch.
func ensureChild(m map[string]*Node, key string) (map[string]*Node, *Node) {
	if m == nil {
		m = make(map[string]*Node)
	}
	c, ok := m[key]
	if !ok {
		c = &Node{}
		m[key] = c
	}
	return m, c
}
