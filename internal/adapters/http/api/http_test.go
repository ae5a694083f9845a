package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/dugout/internal/adapters/http/api"
	kv "github.com/okian/dugout/internal/adapters/kv"
	model "github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	subject "github.com/okian/dugout/internal/domain/subject"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockTracker struct {
	pending map[string]struct{}
}

func (m *mockTracker) MarkPending(ctx context.Context, key string) bool {
	if m.pending == nil {
		m.pending = make(map[string]struct{})
	}
	if _, exists := m.pending[key]; exists {
		return true
	}
	m.pending[key] = struct{}{}
	return false
}

func (m *mockTracker) Clear(ctx context.Context, key string) {
	delete(m.pending, key)
}

func (m *mockTracker) Size() int64 {
	return int64(len(m.pending))
}

type mockQueue struct {
	enqueueSuccess bool
	enqueued       []api.Job
}

func (m *mockQueue) Enqueue(ctx context.Context, j api.Job) bool {
	if m.enqueueSuccess {
		m.enqueued = append(m.enqueued, j)
		return true
	}
	return false
}

type mockEngine struct {
	tree        *split.Tree
	getErr      error
	appendErr   error
	appended    map[string]bool
	subjects    []api.Descriptor
	subjectsErr error

	listKind   model.SubjectKind
	listSeason int
	listQuery  string
}

func (m *mockEngine) AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error) {
	if m.appendErr != nil {
		return model.GameRecord{}, false, m.appendErr
	}
	rec.SubjectID = subject.Canonical(rec.SubjectID)
	if err := rec.Validate(); err != nil {
		return model.GameRecord{}, false, err
	}
	if m.appended == nil {
		m.appended = make(map[string]bool)
	}
	if m.appended[rec.GameID] {
		return rec, false, nil
	}
	m.appended[rec.GameID] = true
	return rec, true, nil
}

func (m *mockEngine) GetOrBuild(ctx context.Context, kind model.SubjectKind, subjectName string, season int) (*split.Tree, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.tree, nil
}

func (m *mockEngine) GetPath(ctx context.Context, kind model.SubjectKind, subjectName string, season int, path string, opts ...split.CompactOption) (*split.Node, error) {
	if _, err := split.ParsePath(path); err != nil {
		return nil, err
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	node, err := m.tree.Resolve(path)
	if err != nil {
		return nil, err
	}
	return split.Compact(node, opts...), nil
}

func (m *mockEngine) ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]api.Descriptor, error) {
	m.listKind, m.listSeason, m.listQuery = kind, season, q
	if m.subjectsErr != nil {
		return nil, m.subjectsErr
	}
	return m.subjects, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

// altuveTree folds the two fixture games used across these tests: one at
// home against BOS with a hit, one away against NYY without.
func altuveTree() *split.Tree {
	tree := split.New(model.KindPlayer, "jose_altuve", 2019)
	tree.Fold(model.GameRecord{
		SubjectID: "jose_altuve", SubjectKind: model.KindPlayer, Season: 2019,
		GameID: "g-a", Location: model.LocationHome, Opponent: "BOS",
		OppPitcher: "chris_sale", OppPitcherHand: model.HandLeft,
		Batting: model.BattingLine{AB: 2, H: 1},
	})
	tree.Fold(model.GameRecord{
		SubjectID: "jose_altuve", SubjectKind: model.KindPlayer, Season: 2019,
		GameID: "g-b", Location: model.LocationAway, Opponent: "NYY",
		OppPitcher: "gerrit_cole", OppPitcherHand: model.HandRight,
		Batting: model.BattingLine{AB: 3},
	})
	return tree
}

func newDeps() *mockDependencies {
	return &mockDependencies{
		tracker: &mockTracker{},
		queue:   &mockQueue{enqueueSuccess: true},
		engine:  &mockEngine{tree: altuveTree()},
	}
}

func postGameBody(subjectID, gameID string) string {
	return fmt.Sprintf(`{
		"subject_id": %q,
		"subject_kind": "player",
		"season": 2019,
		"game_id": %q,
		"location": "home",
		"opponent": "BOS",
		"batting": {"ab": 4, "h": 2}
	}`, subjectID, gameID)
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newDeps()
		statsProvider := &mockStatsProvider{stats: map[string]any{"status": "ok"}}
		server := api.NewServer(deps, statsProvider)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And games endpoint should reject an empty record", func() {
				req := httptest.NewRequest("POST", "/games", strings.NewReader(`{}`))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And macro endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And subjects endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/subjects", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And unknown paths should return not found", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGamesHandler_HandlePostGame(t *testing.T) {
	Convey("Given a games handler", t, func() {
		deps := newDeps()
		handler := api.NewGamesHandler(deps)

		Convey("When handling a valid POST request", func() {
			req := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("Jose Altuve", "g-new")))
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should return accepted with the canonical subject", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var response ackResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Status, ShouldEqual, "accepted")
				So(response.Duplicate, ShouldBeFalse)
				So(response.Subject, ShouldEqual, "jose_altuve")
				So(response.GameID, ShouldEqual, "g-new")
			})

			Convey("And it should enqueue one rebuild job under the macro key", func() {
				So(len(deps.queue.enqueued), ShouldEqual, 1)
				So(deps.queue.enqueued[0].Key(), ShouldEqual, "macro:player:jose_altuve:2019")
				So(deps.tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same game is posted twice", func() {
			req1 := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-dup")))
			w1 := httptest.NewRecorder()
			handler.HandlePostGame(w1, req1)
			So(w1.Code, ShouldEqual, http.StatusAccepted)

			req2 := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-dup")))
			w2 := httptest.NewRecorder()
			handler.HandlePostGame(w2, req2)

			Convey("Then the second response should be a duplicate", func() {
				So(w2.Code, ShouldEqual, http.StatusOK)

				var response ackResponse
				So(json.NewDecoder(w2.Body).Decode(&response), ShouldBeNil)
				So(response.Status, ShouldEqual, "duplicate")
				So(response.Duplicate, ShouldBeTrue)
			})

			Convey("And no second job should queue while one is pending", func() {
				So(len(deps.queue.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When a duplicate arrives after its rebuild finished", func() {
			req1 := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-dup")))
			handler.HandlePostGame(httptest.NewRecorder(), req1)

			// The worker lifts the pending mark when it takes the job.
			deps.tracker.Clear(context.Background(), "macro:player:jose_altuve:2019")

			req2 := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-dup")))
			w2 := httptest.NewRecorder()
			handler.HandlePostGame(w2, req2)

			Convey("Then it should still acknowledge the duplicate", func() {
				So(w2.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And it should schedule a convergence rebuild", func() {
				So(len(deps.queue.enqueued), ShouldEqual, 2)
				So(deps.tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When handling an invalid JSON request", func() {
			req := httptest.NewRequest("POST", "/games", strings.NewReader(`{invalid json`))
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a record that fails validation", func() {
			noOpponent := `{
				"subject_id": "jose_altuve",
				"subject_kind": "player",
				"season": 2019,
				"game_id": "g-x",
				"location": "home"
			}`
			req := httptest.NewRequest("POST", "/games", strings.NewReader(noOpponent))
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "bad_request")
			})

			Convey("And nothing should be queued or marked", func() {
				So(len(deps.queue.enqueued), ShouldEqual, 0)
				So(deps.tracker.Size(), ShouldEqual, 0)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/games", nil)
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When enqueue fails due to backpressure", func() {
			deps.queue.enqueueSuccess = false
			req := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-bp")))
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should return too many requests status", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "backpressure")
			})

			Convey("And the pending mark should be rolled back", func() {
				So(deps.tracker.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the raw store is unavailable", func() {
			deps.engine.appendErr = fmt.Errorf("%w: set failed", kv.ErrUnavailable)
			req := httptest.NewRequest("POST", "/games", strings.NewReader(postGameBody("jose_altuve", "g-down")))
			w := httptest.NewRecorder()
			handler.HandlePostGame(w, req)

			Convey("Then it should report the outage", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "store_unavailable")
			})
		})
	})
}

func TestMacroHandler_HandleGetMacro(t *testing.T) {
	Convey("Given a macro handler", t, func() {
		deps := newDeps()
		handler := api.NewMacroHandler(deps)

		Convey("When requesting a full tree", func() {
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should return the tree envelope", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var tree split.Tree
				So(json.NewDecoder(w.Body).Decode(&tree), ShouldBeNil)
				So(tree.SubjectID, ShouldEqual, "jose_altuve")
				So(tree.GameCount, ShouldEqual, 2)
				So(tree.Root.Stats.Batting.AVG, ShouldEqual, 0.200)
				So(tree.Root.Games, ShouldResemble, []string{"g-a", "g-b"})
			})
		})

		Convey("When requesting a split path", func() {
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019?path=vs_teams.BOS.by_location.home", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should return the resolved node", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var node split.Node
				So(json.NewDecoder(w.Body).Decode(&node), ShouldBeNil)
				So(node.Stats.Batting.AVG, ShouldEqual, 0.500)
				So(node.Games, ShouldResemble, []string{"g-a"})
			})
		})

		Convey("When requesting a compacted tree", func() {
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019?strip_games=true&max_depth=1", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then games should be stripped and depth truncated", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var tree split.Tree
				So(json.NewDecoder(w.Body).Decode(&tree), ShouldBeNil)
				So(tree.GameCount, ShouldEqual, 2)
				So(tree.Root.Games, ShouldBeNil)
				So(tree.Root.GameCount, ShouldNotBeNil)
				So(*tree.Root.GameCount, ShouldEqual, 2)
				So(tree.Root.VsTeams["BOS"].Truncated, ShouldBeTrue)
			})
		})

		Convey("When requesting an absent split path", func() {
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019?path=vs_teams.SEA", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should return path not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "path_not_found")
			})
		})

		Convey("When requesting a malformed split path", func() {
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019?path=by_location..home", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the URL is malformed", func() {
			for _, path := range []string{
				"/macro/umpire/joe/2019",
				"/macro/player/jose_altuve/not-a-year",
				"/macro/player/2019",
				"/macro/player//2019",
			} {
				req := httptest.NewRequest("GET", path, nil)
				w := httptest.NewRecorder()
				handler.HandleGetMacro(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the compaction parameters are malformed", func() {
			for _, target := range []string{
				"/macro/player/jose_altuve/2019?strip_games=sure",
				"/macro/player/jose_altuve/2019?max_depth=-1",
				"/macro/player/jose_altuve/2019?max_depth=deep",
			} {
				req := httptest.NewRequest("GET", target, nil)
				w := httptest.NewRecorder()
				handler.HandleGetMacro(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the macro store is unavailable", func() {
			deps.engine.getErr = fmt.Errorf("%w: get failed", kv.ErrUnavailable)
			req := httptest.NewRequest("GET", "/macro/player/jose_altuve/2019", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should report the outage", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)

				var response errorResponse
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Code, ShouldEqual, "store_unavailable")
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/macro/player/jose_altuve/2019", nil)
			w := httptest.NewRecorder()
			handler.HandleGetMacro(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSubjectsHandler_HandleGetSubjects(t *testing.T) {
	Convey("Given a subjects handler", t, func() {
		deps := newDeps()
		handler := api.NewSubjectsHandler(deps)

		Convey("When listing subjects", func() {
			deps.engine.subjects = []api.Descriptor{
				{Kind: model.KindPlayer, Subject: "jose_altuve", Season: 2019},
				{Kind: model.KindPlayer, Subject: "mike_trout", Season: 2019},
			}
			req := httptest.NewRequest("GET", "/subjects?kind=player&season=2019&q=alt", nil)
			w := httptest.NewRecorder()
			handler.HandleGetSubjects(w, req)

			Convey("Then it should return the descriptors", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []api.Descriptor
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 2)
				So(response[0].Subject, ShouldEqual, "jose_altuve")
			})

			Convey("And the narrowing parameters should pass through", func() {
				So(deps.engine.listKind, ShouldEqual, model.KindPlayer)
				So(deps.engine.listSeason, ShouldEqual, 2019)
				So(deps.engine.listQuery, ShouldEqual, "alt")
			})
		})

		Convey("When no subjects match", func() {
			req := httptest.NewRequest("GET", "/subjects", nil)
			w := httptest.NewRecorder()
			handler.HandleGetSubjects(w, req)

			Convey("Then the body should be an empty array, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the kind parameter is unknown", func() {
			req := httptest.NewRequest("GET", "/subjects?kind=umpire", nil)
			w := httptest.NewRecorder()
			handler.HandleGetSubjects(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the season parameter is not a number", func() {
			req := httptest.NewRequest("GET", "/subjects?season=early", nil)
			w := httptest.NewRecorder()
			handler.HandleGetSubjects(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]any{
				"subjects_cached": 12,
				"queue_size":      3,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]any
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["subjects_cached"], ShouldEqual, 12)
				So(response["queue_size"], ShouldEqual, 3)
			})
		})
	})
}

// Mock dependencies that implements the Dependencies interface
type mockDependencies struct {
	tracker *mockTracker
	queue   *mockQueue
	engine  *mockEngine
}

func (m *mockDependencies) MarkPending(ctx context.Context, key string) bool {
	return m.tracker.MarkPending(ctx, key)
}

func (m *mockDependencies) Clear(ctx context.Context, key string) {
	m.tracker.Clear(ctx, key)
}

func (m *mockDependencies) Size() int64 {
	return m.tracker.Size()
}

func (m *mockDependencies) Enqueue(ctx context.Context, j api.Job) bool {
	return m.queue.Enqueue(ctx, j)
}

func (m *mockDependencies) AppendGame(ctx context.Context, rec model.GameRecord) (model.GameRecord, bool, error) {
	return m.engine.AppendGame(ctx, rec)
}

func (m *mockDependencies) GetOrBuild(ctx context.Context, kind model.SubjectKind, subjectName string, season int) (*split.Tree, error) {
	return m.engine.GetOrBuild(ctx, kind, subjectName, season)
}

func (m *mockDependencies) GetPath(ctx context.Context, kind model.SubjectKind, subjectName string, season int, path string, opts ...split.CompactOption) (*split.Node, error) {
	return m.engine.GetPath(ctx, kind, subjectName, season, path, opts...)
}

func (m *mockDependencies) ListSubjects(ctx context.Context, kind model.SubjectKind, season int, q string) ([]api.Descriptor, error) {
	return m.engine.ListSubjects(ctx, kind, season, q)
}

// Local mirrors of the unexported response shapes.
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
