package arena

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
)

// preMatchStatus is where a failed run returns the arena to.
func preMatchStatus(t core.GameType) core.ArenaStatus {
	if t == core.GameChallenge {
		return core.ArenaChallenge
	}
	return core.ArenaSelectAgent
}

// begin checks the start preconditions, takes the generation guard and moves
// the arena to matching. The caller must release the guard.
func (s *Service) begin(ctx context.Context, id, userID string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := participant(a, userID, "start debate"); err != nil {
		return nil, err
	}

	switch a.Status {
	case preMatchStatus(a.GameType):
	case core.ArenaMatching:
		// Restartable if no live run holds the guard.
	default:
		return nil, core.Preconditionf("start debate", "arena is %s", a.Status)
	}
	if !a.BothSlotsFilled() {
		return nil, core.Preconditionf("start debate", "both agent slots must be filled")
	}
	if a.GameType == core.GameImport && !(a.CreatorReady && a.JoinerReady) {
		return nil, core.Preconditionf("start debate", "both participants must be ready")
	}
	if a.GameType == core.GameChallenge && !(a.CreatorAuthoring.Submitted && a.JoinerAuthoring.Submitted) {
		return nil, core.Preconditionf("start debate", "both participants must submit their knowledge")
	}

	if err := s.guard.TryAcquire(id); err != nil {
		return nil, err
	}

	status := core.ArenaMatching
	noError := ""
	updated, err := s.update(ctx, id, core.ArenaPatch{Status: &status, LastError: &noError})
	if err != nil {
		s.guard.Release(id)
		return nil, err
	}
	slog.Info("Debate starting", "arena_id", id, "pros", a.ProsAgentID, "cons", a.ConsAgentID)
	return updated, nil
}

// execute runs the match for an arena in matching and records the outcome.
// Ratings are applied only once the match is linked to the arena. The guard
// is released when it returns.
func (s *Service) execute(ctx context.Context, a *core.Arena, obs engine.Observer) (*core.Arena, *core.Match, error) {
	defer s.guard.Release(a.ID)

	match, runErr := s.engine.RunMatch(ctx, engine.MatchRequest{
		Topic:        a.Topic,
		AgentAID:     a.ProsAgentID,
		AgentBID:     a.ConsAgentID,
		DeferRatings: true,
	}, obs)

	unlock := s.lock(a.ID)
	defer unlock()

	current, err := s.store.GetArena(ctx, a.ID)
	if err != nil {
		slog.Error("Failed to reload arena after generation", "arena_id", a.ID, "error", err)
		return nil, match, fmt.Errorf("failed to reload arena: %w", err)
	}
	if current == nil {
		slog.Warn("Arena deleted during generation", "arena_id", a.ID)
		return nil, match, core.NewNotFoundError("arena", a.ID)
	}

	if runErr != nil {
		slog.Error("Debate generation failed", "arena_id", a.ID, "error", runErr)
		if current.Status != core.ArenaMatching {
			return current, nil, runErr
		}
		s.restore(ctx, current, runErr.Error())
		return nil, nil, runErr
	}

	if current.Status == core.ArenaCancelled {
		slog.Warn("Arena cancelled during generation, match not linked", "arena_id", a.ID, "match_id", match.ID)
		return current, match, nil
	}

	updated, err := s.link(ctx, a.ID, match.ID)
	if err != nil {
		slog.Error("Failed to link match to arena", "arena_id", a.ID, "match_id", match.ID, "error", err)
		s.restore(ctx, current, fmt.Sprintf("failed to record match %s: %v", match.ID, err))
		return nil, match, err
	}
	if err := s.engine.ApplyRatings(ctx, match); err != nil {
		slog.Error("Failed to update ratings", "arena_id", a.ID, "match_id", match.ID, "error", err)
	}
	slog.Info("Debate completed", "arena_id", a.ID, "match_id", match.ID)
	return updated, match, nil
}

// link moves the arena to completed with its match, retrying failed writes.
func (s *Service) link(ctx context.Context, id, matchID string) (*core.Arena, error) {
	status := core.ArenaCompleted
	var err error
	for attempt := 1; attempt <= s.opts.LinkAttempts; attempt++ {
		var updated *core.Arena
		updated, err = s.update(ctx, id, core.ArenaPatch{Status: &status, MatchID: &matchID})
		if err == nil {
			return updated, nil
		}
		slog.Warn("Linking match failed", "arena_id", id, "match_id", matchID, "attempt", attempt, "error", err)
		if attempt < s.opts.LinkAttempts {
			time.Sleep(s.opts.LinkRetryDelay)
		}
	}
	return nil, err
}

// restore returns an arena left in matching to its pre-match state with msg
// as its last error.
func (s *Service) restore(ctx context.Context, a *core.Arena, msg string) {
	status := preMatchStatus(a.GameType)
	if _, err := s.update(ctx, a.ID, core.ArenaPatch{Status: &status, LastError: &msg}); err != nil {
		slog.Error("Failed to restore arena after failed run", "arena_id", a.ID, "error", err)
	}
}

// StartDebate moves the arena to matching and runs the match in the
// background. It returns as soon as the run has begun. guard.ErrBusy means a
// run is already in progress.
func (s *Service) StartDebate(ctx context.Context, id, userID string) (*core.Arena, error) {
	a, err := s.begin(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	runCtx := context.WithoutCancel(ctx)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if _, _, err := s.execute(runCtx, a, nil); err != nil {
			slog.Error("Background debate failed", "arena_id", a.ID, "error", err)
		}
	}()
	return a, nil
}

// RunLive runs the match on the calling goroutine, reporting progress to obs.
// The run does not stop if ctx is cancelled.
func (s *Service) RunLive(ctx context.Context, id, userID string, obs engine.Observer) (*core.Arena, *core.Match, error) {
	a, err := s.begin(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.execute(context.WithoutCancel(ctx), a, obs)
}
