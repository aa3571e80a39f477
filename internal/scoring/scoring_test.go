package scoring

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/persona"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateTrimmedMean(t *testing.T) {
	verdicts := []core.JudgeVerdict{
		{JudgeID: "j1", ScoreA: 0.9, ScoreB: 0.1},
		{JudgeID: "j2", ScoreA: 0.8, ScoreB: 0.2},
		{JudgeID: "j3", ScoreA: 0.85, ScoreB: 0.15},
		{JudgeID: "j4", ScoreA: 0.95, ScoreB: 0.05},
	}

	got := Aggregate(verdicts)
	if !almostEqual(got.A, 0.875) {
		t.Errorf("expected A=0.875, got %v", got.A)
	}
	if !almostEqual(got.B, 0.125) {
		t.Errorf("expected B=0.125, got %v", got.B)
	}
	if w := Winner(got, "agent-a", "agent-b"); w != "agent-a" {
		t.Errorf("expected agent-a to win, got %q", w)
	}
}

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.4}, 0.4},
		{"three samples untrimmed", []float64{0.1, 0.5, 0.9}, 0.5},
		{"four samples trimmed", []float64{1, 0, 0.5, 0.5}, 0.5},
		{"five samples trimmed", []float64{0.2, 0.9, 0.4, 0.6, 0.0}, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimmedMean(tt.samples); !almostEqual(got, tt.want) {
				t.Errorf("TrimmedMean(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}
}

func TestTrimmedMeanDoesNotMutateInput(t *testing.T) {
	in := []float64{0.9, 0.1, 0.5, 0.3}
	TrimmedMean(in)
	if in[0] != 0.9 || in[1] != 0.1 {
		t.Errorf("input was reordered: %v", in)
	}
}

func TestWinnerTie(t *testing.T) {
	if w := Winner(Scores{A: 0.5, B: 0.5}, "a", "b"); w != "" {
		t.Errorf("expected no winner on tie, got %q", w)
	}
	if w := Winner(Scores{A: 0.4, B: 0.6}, "a", "b"); w != "b" {
		t.Errorf("expected b, got %q", w)
	}
}

// criteriaJSON renders all eight criteria with the same value.
func criteriaJSON(v float64) string {
	parts := make([]string, 0, len(CriteriaNames))
	for _, name := range CriteriaNames {
		parts = append(parts, strconv.Quote(name)+": "+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  Kind
		wantA float64
		wantB float64
	}{
		{
			name:  "overall direct",
			raw:   `{"overall": {"a": 0.7, "b": 0.3}}`,
			kind:  ParsedOverall,
			wantA: 0.7,
			wantB: 0.3,
		},
		{
			name:  "overall pros cons keys as strings",
			raw:   `{"overall": {"pros": "0.6", "cons": "0.4"}}`,
			kind:  ParsedOverall,
			wantA: 0.6,
			wantB: 0.4,
		},
		{
			name:  "overall out of range is clamped",
			raw:   `{"overall": {"a": 1.7, "b": -0.2}}`,
			kind:  ParsedOverall,
			wantA: 1,
			wantB: 0,
		},
		{
			name:  "code block",
			raw:   "Here is my verdict:\n```json\n{\"overall\": {\"a\": 0.55, \"b\": 0.45}}\n```\nThanks.",
			kind:  ParsedOverall,
			wantA: 0.55,
			wantB: 0.45,
		},
		{
			name:  "embedded braces",
			raw:   `Verdict follows {"overall": {"a": 0.2, "b": 0.8}} end`,
			kind:  ParsedOverall,
			wantA: 0.2,
			wantB: 0.8,
		},
		{
			name:  "criteria only",
			raw:   `{"pros": ` + criteriaJSON(10) + `, "cons": ` + criteriaJSON(0) + `}`,
			kind:  ParsedCriteria,
			wantA: 1.0,
			wantB: 0.0,
		},
		{
			name: "incomplete criteria",
			raw:  `{"pros": {"argument_strength": 5}, "cons": {"argument_strength": 5}}`,
			kind: Unparsed,
		},
		{
			name: "prose",
			raw:  "Both sides argued well; I lean pros.",
			kind: Unparsed,
		},
		{
			name: "overall missing one side",
			raw:  `{"overall": {"a": 0.5}}`,
			kind: Unparsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseResponse(tt.raw)
			if p.Kind != tt.kind {
				t.Fatalf("expected kind %d, got %d", tt.kind, p.Kind)
			}
			if tt.kind == Unparsed {
				return
			}
			a, b, _ := Resolve(p, 0, 0)
			if !almostEqual(a, tt.wantA) || !almostEqual(b, tt.wantB) {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.wantA, tt.wantB, a, b)
			}
		})
	}
}

func TestCompositeWeights(t *testing.T) {
	c := Criteria{
		ArgumentStrength:   10,
		FactualAccuracy:    10,
		DirectResponse:     10,
		RebuttalEfficiency: 10,
		Persuasiveness:     10,
		FinalPosition:      10,
		FallacyScore:       0,
		Clarity:            0,
	}
	// Full marks everywhere minus the full fallacy penalty.
	want := 0.34 + 0.25 + 0.18 + 0.12 + 0.07 + 0.10 - 0.06
	if got := c.Composite(); !almostEqual(got, Clamp(want)) {
		t.Errorf("expected %v, got %v", Clamp(want), got)
	}

	half := Criteria{}
	for _, name := range CriteriaNames {
		half[name] = 5
	}
	want = (0.34+0.25+0.18+0.12+0.07+0.10)*0.5 - 0.5*0.06
	if got := half.Composite(); !almostEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCompositeIsOrderIndependent(t *testing.T) {
	side := Criteria{
		ArgumentStrength:   7,
		FactualAccuracy:    6,
		DirectResponse:     5,
		RebuttalEfficiency: 7,
		Persuasiveness:     6,
		FinalPosition:      7,
		FallacyScore:       8,
		Clarity:            9,
	}
	first := side.Composite()
	for i := 0; i < 2000; i++ {
		if got := side.Composite(); got != first {
			t.Fatalf("run %d: composite %v differs from %v", i, got, first)
		}
		other := Criteria{}
		for k, v := range side {
			other[k] = v
		}
		a, b, method := Resolve(Parse{Kind: ParsedCriteria, CriteriaA: side, CriteriaB: other}, 10, 20)
		if method != core.MethodCriteria {
			t.Fatalf("method = %s", method)
		}
		if a != b {
			t.Fatalf("run %d: identical criteria scored %v vs %v", i, a, b)
		}
		if w := Winner(Scores{A: a, B: b}, "a", "b"); w != "" {
			t.Fatalf("run %d: identical criteria produced winner %q", i, w)
		}
	}
}

func TestResolveFallsBackToLengthRatio(t *testing.T) {
	a, b, method := Resolve(Parse{Kind: Unparsed}, 300, 100)
	if method != core.MethodLengthRatio {
		t.Fatalf("expected length_ratio, got %s", method)
	}
	if !almostEqual(a, 0.75) || !almostEqual(b, 0.25) {
		t.Errorf("expected (0.75, 0.25), got (%v, %v)", a, b)
	}

	a, b = LengthRatio(0, 0)
	if a != 0.5 || b != 0.5 {
		t.Errorf("expected (0.5, 0.5) for empty texts, got (%v, %v)", a, b)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(math.NaN()) != 0 {
		t.Error("NaN should clamp to 0")
	}
	if Clamp(2) != 1 || Clamp(-1) != 0 || Clamp(0.3) != 0.3 {
		t.Error("clamp out of range")
	}
}

func testTranscript() []core.RoundEntry {
	var out []core.RoundEntry
	for _, s := range core.Stages {
		out = append(out,
			core.RoundEntry{Stage: s, AgentID: "a", Text: "pros says something long enough"},
			core.RoundEntry{Stage: s, AgentID: "b", Text: "cons"},
		)
	}
	return out
}

func TestPanelEvaluate(t *testing.T) {
	var calls atomic.Int32
	judges := make([]Judge, 0, core.JudgeCount)
	for i, p := range persona.DefaultPersonas() {
		out := `{"overall": {"a": 0.8, "b": 0.2}}`
		if i == 0 {
			out = "I refuse to answer in JSON."
		}
		judges = append(judges, Judge{
			ID:      p.ID,
			Persona: p,
			Gen: core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
				calls.Add(1)
				if !strings.Contains(system, "Return ONLY valid JSON") {
					t.Errorf("judge system prompt missing format instruction")
				}
				if !strings.Contains(prompt, "Topic: cats") {
					t.Errorf("judge prompt missing topic")
				}
				return out, nil
			}),
		})
	}

	verdicts, err := NewPanel(judges...).Evaluate(context.Background(), "cats", testTranscript(), "a", "b")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if calls.Load() != core.JudgeCount {
		t.Errorf("expected %d judge calls, got %d", core.JudgeCount, calls.Load())
	}
	if len(verdicts) != core.JudgeCount {
		t.Fatalf("expected %d verdicts, got %d", core.JudgeCount, len(verdicts))
	}
	if verdicts[0].Method != core.MethodLengthRatio {
		t.Errorf("expected first verdict to fall back to length ratio, got %s", verdicts[0].Method)
	}
	if verdicts[0].ScoreA <= verdicts[0].ScoreB {
		t.Errorf("longer side should win length ratio, got %+v", verdicts[0])
	}
	for i, v := range verdicts {
		if v.JudgeID != judges[i].ID {
			t.Errorf("verdict %d out of order: %s", i, v.JudgeID)
		}
	}
}

func fixedJudges(n int) []Judge {
	judges := make([]Judge, n)
	for i := range judges {
		judges[i] = Judge{ID: "j" + strconv.Itoa(i+1), Gen: core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
			return `{"overall": {"a": 0.5, "b": 0.5}}`, nil
		})}
	}
	return judges
}

func TestPanelEvaluateError(t *testing.T) {
	boom := errors.New("upstream down")
	judges := fixedJudges(core.JudgeCount)
	judges[1] = Judge{ID: "bad", Gen: core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return "", boom
	})}
	_, err := NewPanel(judges...).Evaluate(context.Background(), "t", testTranscript(), "a", "b")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestPanelEvaluateRequiresFourJudges(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			if _, err := NewPanel(fixedJudges(n)...).Evaluate(context.Background(), "t", testTranscript(), "a", "b"); err == nil {
				t.Fatalf("expected error for a panel of %d judges", n)
			}
		})
	}
	verdicts, err := NewPanel(fixedJudges(core.JudgeCount)...).Evaluate(context.Background(), "t", testTranscript(), "a", "b")
	if err != nil || len(verdicts) != core.JudgeCount {
		t.Fatalf("four judges: verdicts=%d err=%v", len(verdicts), err)
	}
}
