package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
)

// MacroDependencies defines the interface for macro query operations.
type MacroDependencies interface {
	GetOrBuild(ctx context.Context, kind model.SubjectKind, subject string, season int) (*split.Tree, error)
	GetPath(ctx context.Context, kind model.SubjectKind, subject string, season int, path string, opts ...split.CompactOption) (*split.Node, error)
}

// MacroHandler handles macro tree queries.
type MacroHandler struct {
	deps MacroDependencies
}

// NewMacroHandler creates a new macro handler.
func NewMacroHandler(deps MacroDependencies) *MacroHandler {
	return &MacroHandler{deps: deps}
}

// HandleGetMacro handles GET /macro/{kind}/{subject}/{season} requests.
// Without a path parameter the response is the full tree envelope; with
// one it is the resolved sub-tree node. strip_games and max_depth apply
// to either shape.
func (h *MacroHandler) HandleGetMacro(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_macro"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	kind, subjectName, season, err := parseMacroPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	q := r.URL.Query()
	opts, err := compactOptions(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if q.Has("path") {
		node, err := h.deps.GetPath(r.Context(), kind, subjectName, season, q.Get("path"), opts...)
		if err != nil {
			writeEngineError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, node)
		return
	}

	tree, err := h.deps.GetOrBuild(r.Context(), kind, subjectName, season)
	if err != nil {
		writeEngineError(w, op, err)
		return
	}
	if len(opts) > 0 {
		// Trees are shared between callers; compaction works on a copy.
		tree = &split.Tree{
			SubjectID:   tree.SubjectID,
			SubjectKind: tree.SubjectKind,
			Season:      tree.Season,
			GameCount:   tree.GameCount,
			Root:        split.Compact(tree.Root, opts...),
		}
	}
	writeJSON(w, http.StatusOK, tree)
}

// parseMacroPath extracts kind, subject, and season from a
// /macro/{kind}/{subject}/{season} request path.
func parseMacroPath(p string) (model.SubjectKind, string, int, error) {
	parts := strings.Split(strings.TrimPrefix(p, "/macro/"), "/")
	if len(parts) != 3 {
		return "", "", 0, errors.New("want /macro/{kind}/{subject}/{season}")
	}
	kind := model.SubjectKind(parts[0])
	if !kind.Valid() {
		return "", "", 0, fmt.Errorf("unknown subject kind %q", parts[0])
	}
	if parts[1] == "" {
		return "", "", 0, errors.New("missing subject")
	}
	season, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("season %q is not a number", parts[2])
	}
	return kind, parts[1], season, nil
}

// compactOptions translates strip_games and max_depth query parameters
// into compaction options.
func compactOptions(q url.Values) ([]split.CompactOption, error) {
	var opts []split.CompactOption
	if raw := q.Get("strip_games"); raw != "" {
		strip, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("strip_games %q is not a boolean", raw)
		}
		if strip {
			opts = append(opts, split.StripGames())
		}
	}
	if raw := q.Get("max_depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("max_depth %q is not a non-negative integer", raw)
		}
		opts = append(opts, split.MaxDepth(depth))
	}
	return opts, nil
}
