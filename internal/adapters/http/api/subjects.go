package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/dugout/internal/domain/model"
)

// SubjectDependencies defines the interface for subject discovery.
type SubjectDependencies interface {
	ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]Descriptor, error)
}

// SubjectsHandler handles subject discovery requests.
type SubjectsHandler struct {
	deps SubjectDependencies
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(deps SubjectDependencies) *SubjectsHandler {
	return &SubjectsHandler{deps: deps}
}

// HandleGetSubjects handles GET /subjects?kind=player&season=2019&q=alt
// requests. Omitted kind or season widen the enumeration.
func (h *SubjectsHandler) HandleGetSubjects(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_subjects"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	var kind model.SubjectKind
	if raw := q.Get("kind"); raw != "" {
		kind = model.SubjectKind(raw)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("unknown subject kind %q", raw)))
			return
		}
	}
	season := 0
	if raw := q.Get("season"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("season %q is not a number", raw)))
			return
		}
		season = n
	}

	subjects, err := h.deps.ListSubjects(r.Context(), kind, season, q.Get("q"))
	if err != nil {
		writeEngineError(w, op, err)
		return
	}
	if subjects == nil {
		subjects = []Descriptor{}
	}
	writeJSON(w, http.StatusOK, subjects)
}
