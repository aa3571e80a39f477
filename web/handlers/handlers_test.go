package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alienxp03/debatearena/internal/arena"
	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/guard"
	"github.com/alienxp03/debatearena/internal/storage"
	"github.com/alienxp03/debatearena/internal/stream"
	"github.com/alienxp03/debatearena/provider"
	"github.com/alienxp03/debatearena/provider/mock"
)

type testServer struct {
	handler *Handler
	router  http.Handler
	arenas  *arena.Service
	eng     *engine.Engine
}

// setupTestHandler wires the real stack against a temporary database and the
// mock provider.
func setupTestHandler(t *testing.T) *testServer {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}

	registry := provider.NewRegistry()
	registry.Register(mock.New(provider.Config{Name: "mock", DefaultModel: "mock-v1"}))
	resolver := &engine.RegistryResolver{Registry: registry, DefaultProvider: "mock"}

	panel, err := engine.BuildPanel(resolver, []engine.JudgeProfile{
		{ID: "j1", Persona: "logician"},
		{ID: "j2", Persona: "fact_checker"},
		{ID: "j3", Persona: "moderator"},
		{ID: "j4", Persona: "audience"},
	}, nil)
	if err != nil {
		t.Fatalf("Failed to build panel: %v", err)
	}
	eng := engine.New(store, resolver, panel, engine.Options{})
	arenas := arena.NewService(store, eng, guard.New(), arena.Options{
		CreatorIsPros: func() bool { return true },
	})
	t.Cleanup(arenas.Wait)

	h := New(arenas, eng, registry, stream.NewEmitter(40, -1))
	h.healthCache = newHealthCache(filepath.Join(t.TempDir(), "health.json"), healthCacheTTL)
	return &testServer{handler: h, router: h.Routes(), arenas: arenas, eng: eng}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

// readyImportArena creates an import arena with both sides ready and an agent
// selected for each.
func (s *testServer) readyImportArena(t *testing.T) *core.Arena {
	t.Helper()
	w := s.do(t, "POST", "/api/arenas", "alice", map[string]any{"topic": "Remote work beats the office"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create arena: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	a := decodeBody[core.Arena](t, w)

	steps := []struct {
		path string
		user string
		body any
	}{
		{"/join", "bob", nil},
		{"/ready", "alice", map[string]bool{"ready": true}},
		{"/ready", "bob", nil},
	}
	for _, st := range steps {
		if w := s.do(t, "POST", "/api/arenas/"+a.ID+st.path, st.user, st.body); w.Code != http.StatusOK {
			t.Fatalf("%s as %s: expected 200, got %d: %s", st.path, st.user, w.Code, w.Body.String())
		}
	}

	for _, owner := range []string{"alice", "bob"} {
		w := s.do(t, "POST", "/api/agents", owner, map[string]any{
			"name":      owner + "-bot",
			"knowledge": []string{owner + " has read every study on commuting"},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create agent: expected 201, got %d: %s", w.Code, w.Body.String())
		}
		agent := decodeBody[core.Agent](t, w)
		w = s.do(t, "POST", "/api/arenas/"+a.ID+"/select", owner, map[string]string{"agent_id": agent.ID})
		if w.Code != http.StatusOK {
			t.Fatalf("select: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		a = decodeBody[core.Arena](t, w)
	}
	if !a.BothSlotsFilled() {
		t.Fatalf("expected both slots filled, got %+v", a)
	}
	return &a
}

// readSSE collects events from a server-sent event body.
func readSSE(t *testing.T, body io.Reader) []stream.Event {
	t.Helper()
	var events []stream.Event
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev stream.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("Bad SSE payload %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestArenaStreamLiveThenReplay(t *testing.T) {
	s := setupTestHandler(t)
	a := s.readyImportArena(t)

	w := s.do(t, "GET", "/api/arenas/"+a.ID+"/stream", "alice", nil)
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}
	live := readSSE(t, w.Body)
	if len(live) == 0 || live[len(live)-1].Type != stream.EventComplete {
		t.Fatalf("expected stream to end with complete, got %+v", live)
	}

	w = s.do(t, "GET", "/api/arenas/"+a.ID, "", nil)
	got := decodeBody[core.Arena](t, w)
	if got.Status != core.ArenaCompleted || got.MatchID == "" {
		t.Fatalf("expected completed arena with match, got status=%s match=%q", got.Status, got.MatchID)
	}

	w = s.do(t, "GET", "/api/arenas/"+a.ID+"/stream?user=bob", "", nil)
	replay := readSSE(t, w.Body)
	if len(replay) != len(live) {
		t.Fatalf("replay has %d events, live had %d", len(replay), len(live))
	}
	for i := range live {
		if live[i].Type != replay[i].Type || live[i].Text != replay[i].Text {
			t.Fatalf("event %d differs: live %+v replay %+v", i, live[i], replay[i])
		}
	}

	w = s.do(t, "GET", "/api/matches/"+got.MatchID, "", nil)
	m := decodeBody[core.Match](t, w)
	if len(m.Transcript) != core.TranscriptLength || len(m.JudgeVerdicts) != core.JudgeCount {
		t.Errorf("unexpected match shape: %d entries, %d verdicts", len(m.Transcript), len(m.JudgeVerdicts))
	}

	w = s.do(t, "GET", "/api/matches/"+got.MatchID+"/export/markdown", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "# Remote work beats the office") {
		t.Errorf("markdown export failed: %d %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".md") {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestStartDebateAccepted(t *testing.T) {
	s := setupTestHandler(t)
	a := s.readyImportArena(t)

	w := s.do(t, "POST", "/api/arenas/"+a.ID+"/start", "bob", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	s.arenas.Wait()

	got, err := s.arenas.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != core.ArenaCompleted {
		t.Errorf("expected completed, got %s (%s)", got.Status, got.LastError)
	}

	w = s.do(t, "GET", "/api/leaderboard", "", nil)
	ratings := decodeBody[[]core.Rating](t, w)
	if len(ratings) != 2 {
		t.Errorf("expected two rated owners, got %+v", ratings)
	}
}

func TestErrorMapping(t *testing.T) {
	s := setupTestHandler(t)
	w := s.do(t, "POST", "/api/arenas", "alice", map[string]any{"topic": "Tabs or spaces"})
	a := decodeBody[core.Arena](t, w)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		want   int
	}{
		{"unknown arena", "GET", "/api/arenas/nope", "", nil, http.StatusNotFound},
		{"unknown code", "GET", "/api/arenas/code/ZZZZZZ", "", nil, http.StatusNotFound},
		{"missing user", "POST", "/api/arenas/" + a.ID + "/join", "", nil, http.StatusUnauthorized},
		{"creator joins own arena", "POST", "/api/arenas/" + a.ID + "/join", "alice", nil, http.StatusConflict},
		{"start while waiting", "POST", "/api/arenas/" + a.ID + "/start", "alice", nil, http.StatusConflict},
		{"stranger cancels", "POST", "/api/arenas/" + a.ID + "/cancel", "mallory", nil, http.StatusForbidden},
		{"empty topic", "POST", "/api/arenas", "alice", map[string]string{"topic": " "}, http.StatusConflict},
		{"unknown match", "GET", "/api/matches/nope", "", nil, http.StatusNotFound},
		{"bad export format", "GET", "/api/matches/nope/export/docx", "", nil, http.StatusBadRequest},
		{"select without agent", "POST", "/api/arenas/" + a.ID + "/select", "alice", nil, http.StatusBadRequest},
		{"unknown agent", "GET", "/api/agents/nope", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.user, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	w = s.do(t, "GET", "/api/arenas/code/"+strings.ToLower(a.Code), "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("lookup by lowercase code: expected 200, got %d", w.Code)
	}
}

func TestCancelAndDelete(t *testing.T) {
	s := setupTestHandler(t)
	w := s.do(t, "POST", "/api/arenas", "alice", map[string]any{"topic": "Pineapple on pizza"})
	a := decodeBody[core.Arena](t, w)

	w = s.do(t, "POST", "/api/arenas/"+a.ID+"/cancel", "alice", map[string]string{"reason": "changed my mind"})
	got := decodeBody[core.Arena](t, w)
	if got.Status != core.ArenaCancelled || got.CancelReason != "changed my mind" {
		t.Fatalf("unexpected cancel result %+v", got)
	}

	w = s.do(t, "GET", "/api/arenas", "alice", nil)
	if list := decodeBody[[]core.Arena](t, w); len(list) != 1 {
		t.Errorf("expected one arena for alice, got %d", len(list))
	}

	if w := s.do(t, "DELETE", "/api/arenas/"+a.ID, "alice", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(t, "GET", "/api/arenas/"+a.ID, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestChallengeAuthoringOverHTTP(t *testing.T) {
	s := setupTestHandler(t)
	w := s.do(t, "POST", "/api/arenas", "alice", map[string]any{"topic": "Cats beat dogs", "game_type": "challenge"})
	a := decodeBody[core.Arena](t, w)
	s.do(t, "POST", "/api/arenas/"+a.ID+"/join", "bob", nil)
	s.do(t, "POST", "/api/arenas/"+a.ID+"/ready", "alice", nil)
	w = s.do(t, "POST", "/api/arenas/"+a.ID+"/ready", "bob", nil)
	if got := decodeBody[core.Arena](t, w); got.Status != core.ArenaChallenge {
		t.Fatalf("expected challenge status, got %s", got.Status)
	}

	for _, user := range []string{"alice", "bob"} {
		if w := s.do(t, "POST", "/api/arenas/"+a.ID+"/authoring", user, map[string]string{"action": "start"}); w.Code != http.StatusOK {
			t.Fatalf("start authoring: %d %s", w.Code, w.Body.String())
		}
		w := s.do(t, "POST", "/api/arenas/"+a.ID+"/draft", user, map[string]string{"text": user + " notes"})
		if w.Code != http.StatusOK {
			t.Fatalf("save draft: %d %s", w.Code, w.Body.String())
		}
	}

	if w := s.do(t, "POST", "/api/arenas/"+a.ID+"/authoring", "alice", map[string]string{"action": "dance"}); w.Code != http.StatusConflict {
		t.Errorf("unknown action: expected 409, got %d", w.Code)
	}

	w = s.do(t, "POST", "/api/arenas/"+a.ID+"/submit", "alice", map[string]string{"name": "Whiskers", "text": "Cats are independent and clean."})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, "POST", "/api/arenas/"+a.ID+"/authoring", "bob", map[string]string{"action": "finish"})
	if w.Code != http.StatusOK {
		t.Fatalf("finish: %d %s", w.Code, w.Body.String())
	}
	got := decodeBody[core.Arena](t, w)
	if !got.BothSlotsFilled() || !got.CreatorAuthoring.Submitted || !got.JoinerAuthoring.Submitted {
		t.Fatalf("expected both submissions, got %+v", got)
	}

	if w := s.do(t, "POST", "/api/arenas/"+a.ID+"/start", "alice", nil); w.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	s.arenas.Wait()
}

func TestPacksAndAgents(t *testing.T) {
	s := setupTestHandler(t)

	w := s.do(t, "POST", "/api/packs", "carol", map[string]any{"name": "transit", "fragments": []string{"Buses move 40 people.", " "}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create pack: %d %s", w.Code, w.Body.String())
	}
	pack := decodeBody[core.KnowledgePack](t, w)
	if len(pack.Fragments) != 1 {
		t.Errorf("blank fragments should be dropped, got %q", pack.Fragments)
	}

	w = s.do(t, "POST", "/api/agents", "dave", map[string]any{"name": "Thief", "pack_ids": []string{pack.ID}})
	if w.Code != http.StatusForbidden {
		t.Errorf("using another owner's pack: expected 403, got %d", w.Code)
	}

	w = s.do(t, "POST", "/api/agents", "carol", map[string]any{"name": "Planner", "pack_ids": []string{pack.ID}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create agent: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, "GET", "/api/agents?owner=carol", "", nil)
	if agents := decodeBody[[]core.Agent](t, w); len(agents) != 1 || agents[0].Name != "Planner" {
		t.Errorf("unexpected agents %+v", agents)
	}
	w = s.do(t, "GET", "/api/packs/"+pack.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get pack: %d", w.Code)
	}
}

func TestRunMatchDirect(t *testing.T) {
	s := setupTestHandler(t)
	ctx := context.Background()
	a, _ := s.eng.CreateAgent(ctx, core.NewAgentConfig{OwnerID: "x", Name: "A", Knowledge: []string{"fact a"}})
	b, _ := s.eng.CreateAgent(ctx, core.NewAgentConfig{OwnerID: "y", Name: "B", Knowledge: []string{"fact b"}})

	w := s.do(t, "POST", "/api/matches", "", map[string]string{"topic": "Nuclear power", "agent_a_id": a.ID, "agent_b_id": b.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("run match: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, "GET", "/api/matches", "", nil)
	if list := decodeBody[[]core.MatchSummary](t, w); len(list) != 1 {
		t.Errorf("expected one match, got %d", len(list))
	}
}
