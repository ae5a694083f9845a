package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/dugout/internal/domain/dedupe"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/macro"
)

// GameDependencies defines the interface for game ingestion dependencies
type GameDependencies interface {
	dedupe.Tracker
	Enqueue(ctx context.Context, j Job) bool
	AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error)
}

// GamesHandler handles game ingestion requests
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// HandlePostGame handles POST /games requests. The record is written to
// raw storage synchronously; the macro rebuild happens asynchronously.
func (h *GamesHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var rec model.GameRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, added, err := h.deps.AppendGame(r.Context(), rec)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeEngineError(w, op, err)
		return
	}

	job := macro.JobFor(rec)
	if !added {
		// A duplicate is usually a retry after a dropped job; schedule a
		// rebuild anyway so the macro converges with the stored record.
		if !h.deps.MarkPending(r.Context(), job.Key()) && !h.deps.Enqueue(r.Context(), job) {
			h.deps.Clear(r.Context(), job.Key())
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Subject: rec.SubjectID, GameID: rec.GameID})
		return
	}

	if h.deps.MarkPending(r.Context(), job.Key()) {
		// A rebuild for this macro is already queued; it will fold the
		// record just written.
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false, Subject: rec.SubjectID, GameID: rec.GameID})
		return
	}
	if !h.deps.Enqueue(r.Context(), job) {
		h.deps.Clear(r.Context(), job.Key())
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false, Subject: rec.SubjectID, GameID: rec.GameID})
}
