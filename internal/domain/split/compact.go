package split

// CompactOption applies a configuration option to Compact.
type CompactOption func(*compactConfig)

type compactConfig struct {
	stripGames bool
	maxDepth   int // dimension levels kept below the projected root; -1 keeps all
}

// StripGames replaces each node's game-id set with its count.
func StripGames() CompactOption {
	return func(c *compactConfig) {
		c.stripGames = true
	}
}

// MaxDepth limits how many dimension levels the projection keeps. Zero
// keeps only the projected root; anything cut off is marked truncated.
// Negative depths are ignored.
func MaxDepth(depth int) CompactOption {
	return func(c *compactConfig) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// Compact returns a pruned copy of the node for transport. The source is
// never modified and shares no mutable state with the copy.
func Compact(n *Node, opts ...CompactOption) *Node {
	cfg := compactConfig{maxDepth: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return compactNode(n, cfg, 0)
}

func compactNode(n *Node, cfg compactConfig, depth int) *Node {
	out := &Node{Stats: n.Stats}
	if cfg.stripGames {
		count := len(n.Games)
		out.GameCount = &count
	} else {
		out.Games = append([]string(nil), n.Games...)
	}
	if cfg.maxDepth >= 0 && depth >= cfg.maxDepth {
		if n.hasChildren() {
			out.Truncated = true
		}
		return out
	}
	out.ByLocation = compactMap(n.ByLocation, cfg, depth+1)
	out.VsHandedness = compactMap(n.VsHandedness, cfg, depth+1)
	out.VsTeams = compactMap(n.VsTeams, cfg, depth+1)
	out.VsPitchers = compactMap(n.VsPitchers, cfg, depth+1)
	return out
}

func compactMap(m map[string]*Node, cfg compactConfig, depth int) map[string]*Node {
	if m == nil {
		return nil
	}
	out := make(map[string]*Node, len(m))
	for k, v := range m {
		out[k] = compactNode(v, cfg, depth)
	}
	return out
}
