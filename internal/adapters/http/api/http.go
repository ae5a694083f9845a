// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/dugout/internal/adapters/kv"
	"github.com/okian/dugout/internal/domain/dedupe"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/internal/domain/types"
	"github.com/okian/dugout/internal/macro"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Tracker

	// Enqueue schedules an asynchronous rebuild job. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, j Job) bool

	// Read and write operations expose the macro engine.
	AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error)
	GetOrBuild(ctx context.Context, kind model.SubjectKind, subject string, season int) (*split.Tree, error)
	GetPath(ctx context.Context, kind model.SubjectKind, subject string, season int, path string, opts ...split.CompactOption) (*split.Node, error)
	ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]Descriptor, error)
}

// Descriptor mirrors the read shape returned by subject discovery.
type Descriptor = types.Descriptor

// Job mirrors the rebuild-job payload carried by the queue.
type Job = macro.Job

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	gamesHandler    *GamesHandler
	macroHandler    *MacroHandler
	subjectsHandler *SubjectsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		gamesHandler:    NewGamesHandler(deps),
		macroHandler:    NewMacroHandler(deps),
		subjectsHandler: NewSubjectsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandlePostGame, "games"))
	mux.HandleFunc("/subjects", MetricsMiddleware(s.subjectsHandler.HandleGetSubjects, "subjects"))
	mux.HandleFunc("/macro/", MetricsMiddleware(s.macroHandler.HandleGetMacro, "macro"))
}

// ackResponse acknowledges an ingested record. Subject carries the
// canonical spelling, which may differ from the one posted.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Subject   string `json:"subject"`
	GameID    string `json:"game_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError translates engine failures into transport responses.
// An unavailable store is reported as such and never turned into an
// empty result.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, split.ErrMalformedPath):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, split.ErrPathNotFound):
		writeError(w, http.StatusNotFound, "path_not_found", Wrap(op, err))
	case errors.Is(err, kv.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
