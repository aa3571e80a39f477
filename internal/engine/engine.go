// Package engine builds matches: it generates the rounds of a debate, has
// the judge panel score them, stores the result and updates owner ratings.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/rating"
	"github.com/alienxp03/debatearena/internal/scoring"
	"github.com/alienxp03/debatearena/internal/storage"
)

// Options tunes match building.
type Options struct {
	// KFactor is the Elo update factor. Zero uses rating.DefaultK.
	KFactor float64
	// Conclusion, when set, writes a short summary of the finished match.
	// Its failure leaves ConclusionText empty.
	Conclusion core.Generator
}

// Engine orchestrates matches.
type Engine struct {
	storage  storage.Storage
	resolver Resolver
	panel    *scoring.Panel
	opts     Options
}

// New creates a new match engine.
func New(store storage.Storage, resolver Resolver, panel *scoring.Panel, opts Options) *Engine {
	return &Engine{
		storage:  store,
		resolver: resolver,
		panel:    panel,
		opts:     opts,
	}
}

// MatchRequest names the topic and the two agents. Agent A argues pros.
type MatchRequest struct {
	Topic    string
	AgentAID string
	AgentBID string
	// DeferRatings leaves the owners' ratings untouched. The caller applies
	// them with ApplyRatings once the match is accepted.
	DeferRatings bool
}

// RunMatch generates, scores and stores a match. Generation errors are fatal
// and nothing is stored. obs may be nil.
func (e *Engine) RunMatch(ctx context.Context, req MatchRequest, obs Observer) (*core.Match, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, core.Preconditionf("run match", "topic is required")
	}
	slog.Info("Starting match", "topic", req.Topic, "agent_a", req.AgentAID, "agent_b", req.AgentBID)

	a, err := e.debater(ctx, req.AgentAID, core.SidePros)
	if err != nil {
		return nil, err
	}
	b, err := e.debater(ctx, req.AgentBID, core.SideCons)
	if err != nil {
		return nil, err
	}

	transcript, err := GenerateRounds(ctx, req.Topic, a, b, obs)
	if err != nil {
		return nil, err
	}

	verdicts, err := e.panel.Evaluate(ctx, req.Topic, transcript, a.Agent.ID, b.Agent.ID)
	if err != nil {
		return nil, err
	}
	scores := scoring.Aggregate(verdicts)

	match := &core.Match{
		ID:            core.GenerateID(),
		Topic:         req.Topic,
		AgentAID:      a.Agent.ID,
		AgentBID:      b.Agent.ID,
		Transcript:    transcript,
		JudgeVerdicts: verdicts,
		ScoreA:        scores.A,
		ScoreB:        scores.B,
		WinnerAgentID: scoring.Winner(scores, a.Agent.ID, b.Agent.ID),
		CreatedAt:     time.Now(),
	}
	match.ConclusionText = e.conclude(ctx, match)

	if err := e.storage.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to store match: %w", err)
	}

	if !req.DeferRatings {
		if err := e.updateRatings(ctx, match, a.Agent, b.Agent); err != nil {
			slog.Error("Failed to update ratings", "match_id", match.ID, "error", err)
		}
	}

	slog.Info("Match completed",
		"match_id", match.ID,
		"score_a", match.ScoreA,
		"score_b", match.ScoreB,
		"winner", match.WinnerAgentID,
	)
	return match, nil
}

// debater loads an agent, its knowledge and its generator.
func (e *Engine) debater(ctx context.Context, agentID string, side core.Side) (Debater, error) {
	agent, err := e.storage.GetAgent(ctx, agentID)
	if err != nil {
		return Debater{}, fmt.Errorf("failed to load agent: %w", err)
	}
	if agent == nil {
		return Debater{}, core.NewNotFoundError("agent", agentID)
	}

	packs := make([]*core.KnowledgePack, 0, len(agent.PackIDs))
	for _, id := range agent.PackIDs {
		pack, err := e.storage.GetPack(ctx, id)
		if err != nil {
			return Debater{}, fmt.Errorf("failed to load knowledge pack: %w", err)
		}
		if pack == nil {
			slog.Warn("Agent references missing knowledge pack", "agent_id", agent.ID, "pack_id", id)
			continue
		}
		packs = append(packs, pack)
	}

	gen, err := e.resolver.Generator(agent.Provider, agent.Model)
	if err != nil {
		return Debater{}, fmt.Errorf("agent %s: %w", agent.ID, err)
	}

	return Debater{
		Agent:     agent,
		Side:      side,
		Knowledge: core.JoinKnowledge(packs),
		Gen:       gen,
	}, nil
}

// ApplyRatings applies the rating update for a stored match run with
// DeferRatings.
func (e *Engine) ApplyRatings(ctx context.Context, match *core.Match) error {
	a, err := e.storage.GetAgent(ctx, match.AgentAID)
	if err != nil {
		return fmt.Errorf("failed to load agent: %w", err)
	}
	b, err := e.storage.GetAgent(ctx, match.AgentBID)
	if err != nil {
		return fmt.Errorf("failed to load agent: %w", err)
	}
	if a == nil || b == nil {
		slog.Warn("Skipping rating update, agent deleted", "match_id", match.ID)
		return nil
	}
	return e.updateRatings(ctx, match, a, b)
}

// updateRatings applies the Elo update to both owners. It is skipped when an
// agent has no owner or both agents share one.
func (e *Engine) updateRatings(ctx context.Context, match *core.Match, a, b *core.Agent) error {
	if a.OwnerID == "" || b.OwnerID == "" {
		slog.Debug("Skipping rating update, agent without owner", "match_id", match.ID)
		return nil
	}
	if a.OwnerID == b.OwnerID {
		slog.Debug("Skipping rating update, self match", "match_id", match.ID, "owner", a.OwnerID)
		return nil
	}

	ra, err := e.storage.GetRating(ctx, a.OwnerID)
	if err != nil {
		return err
	}
	rb, err := e.storage.GetRating(ctx, b.OwnerID)
	if err != nil {
		return err
	}

	newA, newB := rating.Update(ra, rb, rating.OutcomeFor(match.WinnerAgentID, a.ID), e.opts.KFactor)
	return e.storage.SetRatings(ctx, map[string]float64{
		a.OwnerID: newA,
		b.OwnerID: newB,
	})
}

func (e *Engine) conclude(ctx context.Context, match *core.Match) string {
	if e.opts.Conclusion == nil {
		return ""
	}

	outcome := "The judges scored it a tie."
	switch match.WinnerAgentID {
	case match.AgentAID:
		outcome = "The judges gave the win to PROS."
	case match.AgentBID:
		outcome = "The judges gave the win to CONS."
	}

	system := `You write neutral debate summaries. In at most four sentences, state each side's
strongest point and why the outcome went the way it did. Plain text only.`
	prompt := scoring.FormatTranscript(match.Topic, match.Transcript, match.AgentAID, match.AgentBID) +
		fmt.Sprintf("\nScores: PROS %.3f, CONS %.3f. %s\n", match.ScoreA, match.ScoreB, outcome)

	text, err := e.opts.Conclusion.Generate(ctx, system, prompt)
	if err != nil {
		slog.Warn("Failed to generate conclusion", "match_id", match.ID, "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// GetMatch retrieves a match by ID.
func (e *Engine) GetMatch(ctx context.Context, id string) (*core.Match, error) {
	m, err := e.storage.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, core.NewNotFoundError("match", id)
	}
	return m, nil
}

// ListMatches returns recent match summaries.
func (e *Engine) ListMatches(ctx context.Context, limit, offset int) ([]*core.MatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.storage.ListMatches(ctx, limit, offset)
}

// Leaderboard returns owner ratings, highest first.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]*core.Rating, error) {
	return e.storage.ListRatings(ctx, limit)
}
