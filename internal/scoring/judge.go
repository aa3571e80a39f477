package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/persona"
)

// Judge is one independent scorer.
type Judge struct {
	ID      string
	Persona persona.Persona
	Gen     core.Generator
}

// Panel runs every judge over the same transcript.
type Panel struct {
	Judges []Judge
}

// NewPanel creates a judge panel.
func NewPanel(judges ...Judge) *Panel {
	return &Panel{Judges: judges}
}

const judgeInstruction = `

You are scoring a finished debate between PROS (side A) and CONS (side B).
Score each side from 0 to 10 on: argument_strength, factual_accuracy, direct_response,
rebuttal_efficiency, persuasiveness, final_position, fallacy_score (10 = no fallacies), clarity.
Then give an overall score in [0,1] for each side.

Return ONLY valid JSON in this exact format:
{"pros": {"argument_strength": 0, "factual_accuracy": 0, "direct_response": 0, "rebuttal_efficiency": 0, "persuasiveness": 0, "final_position": 0, "fallacy_score": 0, "clarity": 0},
 "cons": {"argument_strength": 0, "factual_accuracy": 0, "direct_response": 0, "rebuttal_efficiency": 0, "persuasiveness": 0, "final_position": 0, "fallacy_score": 0, "clarity": 0},
 "overall": {"a": 0.0, "b": 0.0}}
Do NOT include any other text.`

// Evaluate runs all judges concurrently and returns one verdict per judge in
// panel order. A failed generation call is fatal; unreadable judge output is
// not, it falls back to the length-ratio score.
func (p *Panel) Evaluate(ctx context.Context, topic string, transcript []core.RoundEntry, agentA, agentB string) ([]core.JudgeVerdict, error) {
	if len(p.Judges) != core.JudgeCount {
		return nil, fmt.Errorf("judge panel has %d judges, need exactly %d", len(p.Judges), core.JudgeCount)
	}

	prompt := FormatTranscript(topic, transcript, agentA, agentB)
	lenA, lenB := sideLengths(transcript, agentA, agentB)

	verdicts := make([]core.JudgeVerdict, len(p.Judges))
	wp := pool.New().WithContext(ctx).WithCancelOnError()
	for i, j := range p.Judges {
		wp.Go(func(ctx context.Context) error {
			raw, err := j.Gen.Generate(ctx, j.Persona.SystemPrompt+judgeInstruction, prompt)
			if err != nil {
				return &core.GenerationError{Step: "judge " + j.ID, Err: err}
			}
			parsed := ParseResponse(raw)
			a, b, method := Resolve(parsed, lenA, lenB)
			if method == core.MethodLengthRatio {
				slog.Warn("Judge output unparsable, using length ratio", "judge", j.ID, "output_len", len(raw))
			}
			verdicts[i] = core.JudgeVerdict{JudgeID: j.ID, ScoreA: a, ScoreB: b, Method: method}
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// FormatTranscript renders the full two-sided transcript for judging.
func FormatTranscript(topic string, transcript []core.RoundEntry, agentA, agentB string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	for _, e := range transcript {
		label := "PROS (A)"
		if e.AgentID == agentB && agentB != agentA {
			label = "CONS (B)"
		}
		fmt.Fprintf(&sb, "\n--- %s, %s ---\n%s\n", label, e.Stage, e.Text)
	}
	return sb.String()
}

func sideLengths(transcript []core.RoundEntry, agentA, agentB string) (lenA, lenB int) {
	for _, e := range transcript {
		switch e.AgentID {
		case agentA:
			lenA += len([]rune(e.Text))
		case agentB:
			lenB += len([]rune(e.Text))
		}
	}
	return lenA, lenB
}
