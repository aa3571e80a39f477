package arena

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
)

// AuthoringAction is a participant's control over their writing clock.
type AuthoringAction string

const (
	ActionStart  AuthoringAction = "start"
	ActionPause  AuthoringAction = "pause"
	ActionResume AuthoringAction = "resume"
	ActionFinish AuthoringAction = "finish"
)

func (s *Service) budget(a *core.Arena) time.Duration {
	return time.Duration(a.WritingMinutes) * time.Minute
}

// authoringTarget loads the arena and checks that userID may author in it.
// Callers hold the arena lock.
func (s *Service) authoringTarget(ctx context.Context, id, userID, op string) (*core.Arena, core.Role, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	role, err := participant(a, userID, op)
	if err != nil {
		return nil, "", err
	}
	if a.GameType != core.GameChallenge {
		return nil, "", core.Preconditionf(op, "arena is not in challenge mode")
	}
	if a.Status != core.ArenaChallenge {
		return nil, "", core.Preconditionf(op, "arena is %s", a.Status)
	}
	return a, role, nil
}

// ControlAuthoring moves the caller's writing clock. Finish submits the
// saved draft.
func (s *Service) ControlAuthoring(ctx context.Context, id, userID string, action AuthoringAction) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	op := "authoring " + string(action)
	a, role, err := s.authoringTarget(ctx, id, userID, op)
	if err != nil {
		return nil, err
	}
	state := a.Authoring(role)
	now := s.opts.Now()

	switch action {
	case ActionStart:
		if state.Status != core.WritingIdle {
			return nil, core.Preconditionf(op, "authoring is %s", state.Status)
		}
		state.Status = core.WritingActive
		state.StartedAt = &now
	case ActionPause:
		if state.Status != core.WritingActive {
			return nil, core.Preconditionf(op, "authoring is %s", state.Status)
		}
		state.Status = core.WritingPaused
		state.PausedAt = &now
	case ActionResume:
		if state.Status != core.WritingPaused {
			return nil, core.Preconditionf(op, "authoring is %s", state.Status)
		}
		state = settlePause(state, now)
		state.Status = core.WritingActive
	case ActionFinish:
		return s.submitLocked(ctx, a, role, state.DraftName, state.DraftText, false)
	default:
		return nil, core.Preconditionf("authoring", "unknown action %q", action)
	}

	var patch core.ArenaPatch
	patch.SetAuthoring(role, state)
	slog.Debug("Authoring state changed", "arena_id", id, "role", role, "status", state.Status)
	return s.update(ctx, id, patch)
}

// settlePause adds the time spent paused since PausedAt to PausedSeconds.
func settlePause(state core.AuthoringState, now time.Time) core.AuthoringState {
	if state.Status == core.WritingPaused && state.PausedAt != nil {
		if d := now.Sub(*state.PausedAt); d > 0 {
			state.PausedSeconds += d.Seconds()
		}
	}
	state.PausedAt = nil
	return state
}

// SaveDraft stores the caller's in-progress knowledge text.
func (s *Service) SaveDraft(ctx context.Context, id, userID, name, text string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, role, err := s.authoringTarget(ctx, id, userID, "save draft")
	if err != nil {
		return nil, err
	}
	state := a.Authoring(role)
	if !state.Open() {
		return nil, core.Preconditionf("save draft", "authoring is %s", state.Status)
	}
	state.DraftName = name
	state.DraftText = text

	var patch core.ArenaPatch
	patch.SetAuthoring(role, state)
	return s.update(ctx, id, patch)
}

// SubmitKnowledge turns the given text into the caller's agent. The writing
// budget is checked against server time.
func (s *Service) SubmitKnowledge(ctx context.Context, id, userID, name, text string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, role, err := s.authoringTarget(ctx, id, userID, "submit")
	if err != nil {
		return nil, err
	}
	return s.submitLocked(ctx, a, role, name, text, false)
}

// submitLocked creates a pack and agent from text and fills the caller's
// slot. auto marks a time-driven submission, which skips the budget check.
func (s *Service) submitLocked(ctx context.Context, a *core.Arena, role core.Role, name, text string, auto bool) (*core.Arena, error) {
	state := a.Authoring(role)
	now := s.opts.Now()

	if !state.Open() {
		return nil, core.Preconditionf("submit", "authoring is %s", state.Status)
	}
	if !auto && state.Elapsed(now) > s.budget(a) {
		return nil, core.Preconditionf("submit", "writing time is over")
	}
	side := a.SideOf(role)
	if a.SlotAgent(side) != "" {
		return nil, core.Preconditionf("submit", "%s slot is already filled", side)
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.Preconditionf("submit", "knowledge text is empty")
	}

	owner := a.CreatorID
	if role == core.RoleJoiner {
		owner = a.JoinerID
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s draft %s", side, core.ShortID(a.ID))
	}

	agent, err := s.engine.CreateAgent(ctx, core.NewAgentConfig{
		OwnerID:   owner,
		Name:      name,
		Knowledge: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent from draft: %w", err)
	}

	state = settlePause(state, now)
	state.Status = core.WritingFinished
	state.Submitted = true
	state.DraftText = ""
	state.DraftName = ""

	var patch core.ArenaPatch
	patch.SetAuthoring(role, state)
	patch.SetSlot(side, agent.ID)
	slog.Info("Knowledge submitted", "arena_id", a.ID, "role", role, "agent_id", agent.ID, "auto", auto)
	return s.update(ctx, a.ID, patch)
}

// applyTimeouts enforces expired writing budgets. Callers hold the arena
// lock. An expired draft below the word floor, or a participant who never
// started, cancels the arena; a long enough draft is submitted on the
// participant's behalf.
func (s *Service) applyTimeouts(ctx context.Context, a *core.Arena) (*core.Arena, error) {
	if a.Status != core.ArenaChallenge {
		return a, nil
	}
	now := s.opts.Now()
	budget := s.budget(a)

	for _, role := range []core.Role{core.RoleCreator, core.RoleJoiner} {
		state := a.Authoring(role)
		if !state.Expired(now, budget) {
			continue
		}

		if !state.Open() || state.DraftWords() < s.opts.MinDraftWords || state.DraftWords() == 0 {
			slog.Info("Authoring time over", "arena_id", a.ID, "role", role, "status", state.Status, "words", state.DraftWords())
			return s.cancelLocked(ctx, a.ID, ReasonTimeOver)
		}

		updated, err := s.submitLocked(ctx, a, role, state.DraftName, state.DraftText, true)
		if err != nil {
			return nil, err
		}
		a = updated
	}
	return a, nil
}

// CheckTimeout applies expired writing budgets to one arena.
func (s *Service) CheckTimeout(ctx context.Context, id string) (*core.Arena, error) {
	return s.Get(ctx, id)
}

// Sweep applies expired writing budgets to every arena in the challenge
// state and returns how many changed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	arenas, err := s.store.ListArenasByStatus(ctx, core.ArenaChallenge)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, a := range arenas {
		fresh, err := s.Get(ctx, a.ID)
		if err != nil {
			slog.Error("Sweep failed for arena", "arena_id", a.ID, "error", err)
			continue
		}
		if fresh.Version != a.Version {
			changed++
		}
	}
	return changed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				slog.Error("Arena sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Arena sweep applied timeouts", "arenas", n)
			}
		}
	}
}
