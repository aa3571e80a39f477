package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/stage"
)

// Debater is one side of a debate, ready to generate.
type Debater struct {
	Agent     *core.Agent
	Side      core.Side
	Knowledge string
	Gen       core.Generator
}

// Observer receives progress while rounds are generated. Calls happen on the
// generating goroutine in transcript order.
type Observer interface {
	StageStarted(s core.Stage)
	EntryGenerated(e core.RoundEntry)
}

type nopObserver struct{}

func (nopObserver) StageStarted(core.Stage)         {}
func (nopObserver) EntryGenerated(core.RoundEntry) {}

// GenerateRounds runs the seven stages for a (pros) and b (cons) and returns
// the fourteen entries. Each agent sees only the opponent's earlier entries.
func GenerateRounds(ctx context.Context, topic string, a, b Debater, obs Observer) ([]core.RoundEntry, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	transcript := make([]core.RoundEntry, 0, core.TranscriptLength)
	for _, s := range core.Stages {
		obs.StageStarted(s)
		profile := stage.MustGet(s)

		// Both prompts are fixed before either call runs.
		systemA, promptA := buildTurn(topic, profile, a, opponentEntries(transcript, b.Agent.ID))
		systemB, promptB := buildTurn(topic, profile, b, opponentEntries(transcript, a.Agent.ID))

		var textA, textB string
		p := pool.New().WithContext(ctx).WithCancelOnError()
		p.Go(func(ctx context.Context) error {
			out, err := a.Gen.Generate(ctx, systemA, promptA)
			if err != nil {
				return &core.GenerationError{Step: s.String(), AgentID: a.Agent.ID, Err: err}
			}
			textA = strings.TrimSpace(out)
			return nil
		})
		p.Go(func(ctx context.Context) error {
			out, err := b.Gen.Generate(ctx, systemB, promptB)
			if err != nil {
				return &core.GenerationError{Step: s.String(), AgentID: b.Agent.ID, Err: err}
			}
			textB = strings.TrimSpace(out)
			return nil
		})
		if err := p.Wait(); err != nil {
			return nil, err
		}

		entryA := core.RoundEntry{Stage: s, AgentID: a.Agent.ID, Text: textA}
		entryB := core.RoundEntry{Stage: s, AgentID: b.Agent.ID, Text: textB}
		transcript = append(transcript, entryA, entryB)
		obs.EntryGenerated(entryA)
		obs.EntryGenerated(entryB)

		slog.Debug("Stage completed", "stage", s, "len_a", len(textA), "len_b", len(textB))
	}
	return transcript, nil
}

func opponentEntries(transcript []core.RoundEntry, opponentID string) []core.RoundEntry {
	var out []core.RoundEntry
	for _, e := range transcript {
		if e.AgentID == opponentID {
			out = append(out, e)
		}
	}
	return out
}

// buildTurn returns the system instruction and the per-agent context.
func buildTurn(topic string, profile stage.Profile, d Debater, opponent []core.RoundEntry) (system, prompt string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Your side: %s\n", sideLabel(d.Side))

	sb.WriteString("\nYour knowledge:\n")
	if strings.TrimSpace(d.Knowledge) == "" {
		sb.WriteString("(none)\n")
	} else {
		sb.WriteString(d.Knowledge)
		sb.WriteString("\n")
	}

	if len(opponent) > 0 {
		lines := make([]string, len(opponent))
		for i, e := range opponent {
			lines[i] = fmt.Sprintf("%s: %s", e.Stage, e.Text)
		}
		sb.WriteString("\nYour opponent has said:\n")
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}

	return profile.Instruction, sb.String()
}

func sideLabel(s core.Side) string {
	switch s {
	case core.SidePros:
		return "PROS (argue in favour of the topic)"
	case core.SideCons:
		return "CONS (argue against the topic)"
	}
	return string(s)
}
