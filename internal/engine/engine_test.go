package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/storage"
)

// scriptedGen answers each call with "<prefix>-turn-<n>" and records the prompts.
type scriptedGen struct {
	prefix  string
	failAt  int
	mu      sync.Mutex
	prompts []string
}

func (g *scriptedGen) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if g.failAt > 0 && n+1 == g.failAt {
		return "", errors.New("model overloaded")
	}
	return fmt.Sprintf("%s-turn-%d", g.prefix, n), nil
}

type fakeResolver map[string]core.Generator

func (r fakeResolver) Generator(name, model string) (core.Generator, error) {
	g, ok := r[name]
	if !ok {
		return nil, core.Preconditionf("resolve provider", "provider not found: %s", name)
	}
	return g, nil
}

func judgeGen(a, b float64) core.Generator {
	return core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return fmt.Sprintf(`{"overall": {"a": %v, "b": %v}}`, a, b), nil
	})
}

type testEnv struct {
	eng   *Engine
	store *storage.SQLiteStorage
	pros  *scriptedGen
	cons  *scriptedGen
}

func setupTestEngine(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}

	env := &testEnv{
		store: store,
		pros:  &scriptedGen{prefix: "pros"},
		cons:  &scriptedGen{prefix: "cons"},
	}
	resolver := fakeResolver{
		"fake-pros": env.pros,
		"fake-cons": env.cons,
		"judge":     judgeGen(0.8, 0.2),
	}
	panel, err := BuildPanel(resolver, []JudgeProfile{
		{Persona: "logician", Provider: "judge"},
		{Persona: "fact_checker", Provider: "judge"},
		{Persona: "moderator", Provider: "judge"},
		{Persona: "audience", Provider: "judge"},
	}, nil)
	if err != nil {
		t.Fatalf("failed to build panel: %v", err)
	}
	env.eng = New(store, resolver, panel, opts)
	return env
}

func (env *testEnv) agents(t *testing.T, ownerA, ownerB string) (*core.Agent, *core.Agent) {
	t.Helper()
	ctx := context.Background()
	a, err := env.eng.CreateAgent(ctx, core.NewAgentConfig{
		OwnerID: ownerA, Name: "Ada", Provider: "fake-pros",
		Knowledge: []string{"cats purr", "cats are clean"},
	})
	if err != nil {
		t.Fatalf("failed to create agent A: %v", err)
	}
	b, err := env.eng.CreateAgent(ctx, core.NewAgentConfig{
		OwnerID: ownerB, Name: "Bob", Provider: "fake-cons",
		Knowledge: []string{"dogs fetch"},
	})
	if err != nil {
		t.Fatalf("failed to create agent B: %v", err)
	}
	return a, b
}

type recorder struct {
	events []string
}

func (r *recorder) StageStarted(s core.Stage) { r.events = append(r.events, "stage:"+s.String()) }
func (r *recorder) EntryGenerated(e core.RoundEntry) {
	r.events = append(r.events, "entry:"+e.AgentID)
}

func TestRunMatchTranscript(t *testing.T) {
	env := setupTestEngine(t, Options{})
	a, b := env.agents(t, "alice", "bob")
	rec := &recorder{}

	match, err := env.eng.RunMatch(context.Background(), MatchRequest{Topic: "Cats beat dogs", AgentAID: a.ID, AgentBID: b.ID}, rec)
	if err != nil {
		t.Fatalf("RunMatch failed: %v", err)
	}

	if len(match.Transcript) != core.TranscriptLength {
		t.Fatalf("expected %d entries, got %d", core.TranscriptLength, len(match.Transcript))
	}
	for i, s := range core.Stages {
		ea, eb := match.Transcript[2*i], match.Transcript[2*i+1]
		if ea.Stage != s || eb.Stage != s {
			t.Errorf("stage %s: entries out of order (%s, %s)", s, ea.Stage, eb.Stage)
		}
		if ea.AgentID != a.ID || eb.AgentID != b.ID {
			t.Errorf("stage %s: expected A then B", s)
		}
	}
	if len(match.JudgeVerdicts) != core.JudgeCount {
		t.Errorf("expected %d verdicts, got %d", core.JudgeCount, len(match.JudgeVerdicts))
	}
	if match.WinnerAgentID != a.ID {
		t.Errorf("expected agent A to win, got %q", match.WinnerAgentID)
	}
	if len(rec.events) != len(core.Stages)*3 {
		t.Errorf("expected %d observer events, got %d", len(core.Stages)*3, len(rec.events))
	}
	if rec.events[0] != "stage:opening" || rec.events[1] != "entry:"+a.ID || rec.events[2] != "entry:"+b.ID {
		t.Errorf("unexpected first events: %v", rec.events[:3])
	}

	stored, err := env.eng.GetMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if stored.ScoreA != match.ScoreA || len(stored.Transcript) != core.TranscriptLength {
		t.Errorf("stored match differs: %+v", stored)
	}
}

func TestRunMatchContextIsolation(t *testing.T) {
	env := setupTestEngine(t, Options{})
	a, b := env.agents(t, "alice", "bob")

	if _, err := env.eng.RunMatch(context.Background(), MatchRequest{Topic: "Cats beat dogs", AgentAID: a.ID, AgentBID: b.ID}, nil); err != nil {
		t.Fatalf("RunMatch failed: %v", err)
	}

	for n, prompt := range env.pros.prompts {
		if strings.Contains(prompt, "pros-turn-") {
			t.Errorf("pros call %d saw its own text", n)
		}
		if !strings.Contains(prompt, "cats purr"+core.KnowledgeSeparator+"cats are clean") {
			t.Errorf("pros call %d missing its knowledge", n)
		}
		if strings.Contains(prompt, "dogs fetch") {
			t.Errorf("pros call %d saw opponent knowledge", n)
		}
		for k := 0; k < n; k++ {
			if !strings.Contains(prompt, fmt.Sprintf("cons-turn-%d", k)) {
				t.Errorf("pros call %d missing opponent entry %d", n, k)
			}
		}
		if strings.Contains(prompt, fmt.Sprintf("cons-turn-%d", n)) {
			t.Errorf("pros call %d saw the opponent's same-stage entry", n)
		}
	}
	if len(env.cons.prompts) != len(core.Stages) {
		t.Errorf("expected %d cons calls, got %d", len(core.Stages), len(env.cons.prompts))
	}
	if !strings.Contains(env.cons.prompts[1], "opening: pros-turn-0") {
		t.Errorf("opponent entries should be rendered as stage: text, got %q", env.cons.prompts[1])
	}
}

func TestRunMatchRatings(t *testing.T) {
	ctx := context.Background()

	t.Run("DistinctOwners", func(t *testing.T) {
		env := setupTestEngine(t, Options{KFactor: 32})
		a, b := env.agents(t, "alice", "bob")
		if _, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil); err != nil {
			t.Fatalf("RunMatch failed: %v", err)
		}
		ra, _ := env.store.GetRating(ctx, "alice")
		rb, _ := env.store.GetRating(ctx, "bob")
		if ra != 1016 || rb != 984 {
			t.Errorf("expected (1016, 984), got (%v, %v)", ra, rb)
		}
	})

	t.Run("SameOwnerSkipped", func(t *testing.T) {
		env := setupTestEngine(t, Options{})
		a, b := env.agents(t, "alice", "alice")
		if _, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil); err != nil {
			t.Fatalf("RunMatch failed: %v", err)
		}
		board, _ := env.eng.Leaderboard(ctx, 10)
		if len(board) != 0 {
			t.Errorf("expected no rating rows, got %+v", board)
		}
	})

	t.Run("OwnerlessSkipped", func(t *testing.T) {
		env := setupTestEngine(t, Options{})
		a, b := env.agents(t, "", "bob")
		if _, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil); err != nil {
			t.Fatalf("RunMatch failed: %v", err)
		}
		if rb, _ := env.store.GetRating(ctx, "bob"); rb != core.DefaultRating {
			t.Errorf("expected bob unrated, got %v", rb)
		}
	})
}

func TestRunMatchDeferredRatings(t *testing.T) {
	ctx := context.Background()
	env := setupTestEngine(t, Options{KFactor: 32})
	a, b := env.agents(t, "alice", "bob")

	match, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID, DeferRatings: true}, nil)
	if err != nil {
		t.Fatalf("RunMatch failed: %v", err)
	}
	if ra, _ := env.store.GetRating(ctx, "alice"); ra != core.DefaultRating {
		t.Fatalf("expected alice unrated before ApplyRatings, got %v", ra)
	}

	if err := env.eng.ApplyRatings(ctx, match); err != nil {
		t.Fatalf("ApplyRatings failed: %v", err)
	}
	ra, _ := env.store.GetRating(ctx, "alice")
	rb, _ := env.store.GetRating(ctx, "bob")
	if ra != 1016 || rb != 984 {
		t.Errorf("expected (1016, 984), got (%v, %v)", ra, rb)
	}
}

func TestRunMatchGenerationFailure(t *testing.T) {
	ctx := context.Background()
	env := setupTestEngine(t, Options{})
	env.cons.failAt = 3
	a, b := env.agents(t, "alice", "bob")

	_, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil)
	if !errors.Is(err, core.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	var genErr *core.GenerationError
	if !errors.As(err, &genErr) || genErr.Step != core.StageRebuttal.String() || genErr.AgentID != b.ID {
		t.Errorf("expected failure at rebuttal for agent B, got %v", err)
	}

	matches, err := env.eng.ListMatches(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("failed run must not store a match, found %d", len(matches))
	}
}

func TestRunMatchConclusion(t *testing.T) {
	ctx := context.Background()

	env := setupTestEngine(t, Options{Conclusion: core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return "  PROS carried it.  ", nil
	})})
	a, b := env.agents(t, "alice", "bob")
	m, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil)
	if err != nil {
		t.Fatalf("RunMatch failed: %v", err)
	}
	if m.ConclusionText != "PROS carried it." {
		t.Errorf("unexpected conclusion %q", m.ConclusionText)
	}

	failing := setupTestEngine(t, Options{Conclusion: core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return "", errors.New("down")
	})})
	a, b = failing.agents(t, "alice", "bob")
	m, err = failing.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: b.ID}, nil)
	if err != nil {
		t.Fatalf("conclusion failure must not fail the match: %v", err)
	}
	if m.ConclusionText != "" {
		t.Errorf("expected empty conclusion, got %q", m.ConclusionText)
	}
}

func TestRunMatchValidation(t *testing.T) {
	ctx := context.Background()
	env := setupTestEngine(t, Options{})
	a, _ := env.agents(t, "alice", "bob")

	if _, err := env.eng.RunMatch(ctx, MatchRequest{Topic: " ", AgentAID: a.ID, AgentBID: a.ID}, nil); !errors.Is(err, core.ErrPrecondition) {
		t.Errorf("expected precondition error for empty topic, got %v", err)
	}
	if _, err := env.eng.RunMatch(ctx, MatchRequest{Topic: "t", AgentAID: a.ID, AgentBID: "missing"}, nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found for missing agent, got %v", err)
	}
}

func TestCreateAgentPacks(t *testing.T) {
	ctx := context.Background()
	env := setupTestEngine(t, Options{})

	pack, err := env.eng.CreatePack(ctx, "alice", "facts", []string{"  ", "one"})
	if err != nil {
		t.Fatalf("CreatePack failed: %v", err)
	}
	if len(pack.Fragments) != 1 {
		t.Errorf("blank fragments should be dropped, got %v", pack.Fragments)
	}

	if _, err := env.eng.CreatePack(ctx, "alice", "empty", []string{""}); !errors.Is(err, core.ErrPrecondition) {
		t.Errorf("expected precondition error for empty pack, got %v", err)
	}

	if _, err := env.eng.CreateAgent(ctx, core.NewAgentConfig{OwnerID: "bob", Name: "Thief", PackIDs: []string{pack.ID}}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("expected forbidden for foreign pack, got %v", err)
	}
	if _, err := env.eng.CreateAgent(ctx, core.NewAgentConfig{OwnerID: "alice", Name: "X", Provider: "nope"}); !errors.Is(err, core.ErrPrecondition) {
		t.Errorf("expected precondition error for unknown provider, got %v", err)
	}

	agent, err := env.eng.CreateAgent(ctx, core.NewAgentConfig{OwnerID: "alice", Name: "Ada", PackIDs: []string{pack.ID}, Knowledge: []string{"more"}})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
	if len(agent.PackIDs) != 2 || agent.PackIDs[0] != pack.ID {
		t.Errorf("expected existing pack then new pack, got %v", agent.PackIDs)
	}
}
