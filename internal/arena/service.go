// Package arena implements the two-party arena lifecycle that precedes and
// triggers a match.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/guard"
	"github.com/alienxp03/debatearena/internal/storage"
)

// ReasonTimeOver is the cancel reason of an arena whose authoring budget ran
// out with too short a draft.
const ReasonTimeOver = "time over"

// Matchmaker builds matches and agents. *engine.Engine implements it.
type Matchmaker interface {
	RunMatch(ctx context.Context, req engine.MatchRequest, obs engine.Observer) (*core.Match, error)
	ApplyRatings(ctx context.Context, match *core.Match) error
	CreateAgent(ctx context.Context, cfg core.NewAgentConfig) (*core.Agent, error)
	GetAgent(ctx context.Context, id string) (*core.Agent, error)
}

// Options configures the service.
type Options struct {
	DefaultWritingMinutes int
	MinDraftWords         int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// CreatorIsPros decides the side assignment. Defaults to a fair coin.
	CreatorIsPros func() bool
	// LinkAttempts bounds the tries at recording a finished match on its
	// arena. Defaults to 3.
	LinkAttempts int
	// LinkRetryDelay is the pause between those tries. Defaults to 200ms.
	LinkRetryDelay time.Duration
}

// Service runs arena operations. Every read-modify-write of one arena holds
// that arena's lock.
type Service struct {
	store  storage.Storage
	engine Matchmaker
	guard  *guard.Registry
	opts   Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	runs  sync.WaitGroup
}

// NewService creates an arena service.
func NewService(store storage.Storage, mm Matchmaker, g *guard.Registry, opts Options) *Service {
	if opts.DefaultWritingMinutes <= 0 {
		opts.DefaultWritingMinutes = 10
	}
	if opts.MinDraftWords <= 0 {
		opts.MinDraftWords = 50
	}
	if opts.LinkAttempts <= 0 {
		opts.LinkAttempts = 3
	}
	if opts.LinkRetryDelay <= 0 {
		opts.LinkRetryDelay = 200 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CreatorIsPros == nil {
		opts.CreatorIsPros = func() bool { return rand.IntN(2) == 0 }
	}
	return &Service{
		store:  store,
		engine: mm,
		guard:  g,
		opts:   opts,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Wait blocks until background runs started by StartDebate have finished.
func (s *Service) Wait() {
	s.runs.Wait()
}

// Create opens a new arena in the waiting state.
func (s *Service) Create(ctx context.Context, cfg core.NewArenaConfig) (*core.Arena, error) {
	if cfg.CreatorID == "" {
		return nil, core.Preconditionf("create arena", "creator is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, core.Preconditionf("create arena", "topic is required")
	}
	if cfg.GameType == "" {
		cfg.GameType = core.GameImport
	}
	if !cfg.GameType.Valid() {
		return nil, core.Preconditionf("create arena", "unknown game type %q", cfg.GameType)
	}
	minutes := cfg.WritingMinutes
	if minutes <= 0 {
		minutes = s.opts.DefaultWritingMinutes
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	a := &core.Arena{
		ID:               core.GenerateID(),
		Code:             code,
		Topic:            strings.TrimSpace(cfg.Topic),
		CreatorID:        cfg.CreatorID,
		GameType:         cfg.GameType,
		Status:           core.ArenaWaiting,
		WritingMinutes:   minutes,
		CreatorAuthoring: core.NewAuthoringState(),
		JoinerAuthoring:  core.NewAuthoringState(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateArena(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create arena: %w", err)
	}
	slog.Info("Arena created", "arena_id", a.ID, "code", a.Code, "game_type", a.GameType)
	return a, nil
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < 8; i++ {
		code := core.GenerateCode()
		existing, err := s.store.GetArenaByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check join code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.New("failed to allocate a unique join code")
}

// Get returns an arena after applying any expired authoring timeouts.
func (s *Service) Get(ctx context.Context, id string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.load(ctx, id)
}

// GetByCode looks an arena up by its join code.
func (s *Service) GetByCode(ctx context.Context, code string) (*core.Arena, error) {
	a, err := s.store.GetArenaByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get arena: %w", err)
	}
	if a == nil {
		return nil, core.NewNotFoundError("arena", code)
	}
	return s.Get(ctx, a.ID)
}

// List returns arenas, newest first, optionally limited to one participant.
func (s *Service) List(ctx context.Context, participantID string, limit, offset int) ([]*core.Arena, error) {
	arenas, err := s.store.ListArenas(ctx, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, a := range arenas {
		if a.Status != core.ArenaChallenge {
			continue
		}
		fresh, err := s.Get(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		arenas[i] = fresh
	}
	return arenas, nil
}

// load reads an arena and applies timeouts. Callers hold the arena lock.
func (s *Service) load(ctx context.Context, id string) (*core.Arena, error) {
	a, err := s.store.GetArena(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get arena: %w", err)
	}
	if a == nil {
		return nil, core.NewNotFoundError("arena", id)
	}
	return s.applyTimeouts(ctx, a)
}

// update writes a patch. Callers hold the arena lock.
func (s *Service) update(ctx context.Context, id string, patch core.ArenaPatch) (*core.Arena, error) {
	a, err := s.store.UpdateArena(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, core.NewNotFoundError("arena", id)
	}
	return a, nil
}

func participant(a *core.Arena, userID, op string) (core.Role, error) {
	role, ok := a.RoleOf(userID)
	if !ok {
		return "", core.Forbiddenf("%s: %s is not a participant of arena %s", op, userID, a.ID)
	}
	return role, nil
}

// Join adds the second participant.
func (s *Service) Join(ctx context.Context, id, userID string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, core.Preconditionf("join", "user is required")
	}
	if a.JoinerID == userID {
		return a, nil
	}
	if a.Status != core.ArenaWaiting {
		return nil, core.Preconditionf("join", "arena is %s", a.Status)
	}
	if a.JoinerID != "" {
		return nil, core.Preconditionf("join", "arena is full")
	}
	if userID == a.CreatorID {
		return nil, core.Preconditionf("join", "creator cannot join their own arena")
	}

	slog.Info("Arena joined", "arena_id", id, "joiner", userID)
	return s.update(ctx, id, core.ArenaPatch{JoinerID: &userID})
}

// SetReady records a participant's readiness. When both are ready in the
// waiting state, sides are assigned (once) and the arena moves on.
func (s *Service) SetReady(ctx context.Context, id, userID string, ready bool) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := participant(a, userID, "ready")
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, core.Preconditionf("ready", "arena is %s", a.Status)
	}
	if a.Status != core.ArenaWaiting {
		return a, nil
	}

	var patch core.ArenaPatch
	creatorReady, joinerReady := a.CreatorReady, a.JoinerReady
	if role == core.RoleCreator {
		creatorReady = ready
		patch.CreatorReady = &ready
	} else {
		joinerReady = ready
		patch.JoinerReady = &ready
	}

	if a.JoinerID != "" && creatorReady && joinerReady {
		if a.CreatorSide == core.SideNone && a.JoinerSide == core.SideNone {
			creatorSide := core.SideCons
			if s.opts.CreatorIsPros() {
				creatorSide = core.SidePros
			}
			joinerSide := creatorSide.Opposite()
			patch.CreatorSide = &creatorSide
			patch.JoinerSide = &joinerSide
		}
		next := core.ArenaSelectAgent
		if a.GameType == core.GameChallenge {
			next = core.ArenaChallenge
			now := s.opts.Now()
			creatorState, joinerState := a.CreatorAuthoring, a.JoinerAuthoring
			creatorState.OpenedAt = &now
			joinerState.OpenedAt = &now
			patch.SetAuthoring(core.RoleCreator, creatorState)
			patch.SetAuthoring(core.RoleJoiner, joinerState)
		}
		patch.Status = &next
		slog.Info("Arena ready", "arena_id", id, "status", next)
	}

	return s.update(ctx, id, patch)
}

// SelectAgent puts one of the caller's agents into the slot of their side.
func (s *Service) SelectAgent(ctx context.Context, id, userID, agentID string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := participant(a, userID, "select agent")
	if err != nil {
		return nil, err
	}
	if a.GameType != core.GameImport {
		return nil, core.Preconditionf("select agent", "arena is not in import mode")
	}
	if a.Status != core.ArenaSelectAgent {
		return nil, core.Preconditionf("select agent", "arena is %s", a.Status)
	}

	agent, err := s.engine.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.OwnerID != userID {
		return nil, core.Forbiddenf("agent %s is not owned by %s", agentID, userID)
	}

	var patch core.ArenaPatch
	patch.SetSlot(a.SideOf(role), agent.ID)
	return s.update(ctx, id, patch)
}

// Cancel stops an arena. Only the creator may cancel.
func (s *Service) Cancel(ctx context.Context, id, userID, reason string) (*core.Arena, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != a.CreatorID {
		return nil, core.Forbiddenf("only the creator can cancel arena %s", id)
	}
	switch a.Status {
	case core.ArenaCancelled:
		return a, nil
	case core.ArenaCompleted:
		return nil, core.Preconditionf("cancel", "arena is completed")
	}
	return s.cancelLocked(ctx, id, reason)
}

func (s *Service) cancelLocked(ctx context.Context, id, reason string) (*core.Arena, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "cancelled by creator"
	}
	status := core.ArenaCancelled
	slog.Info("Arena cancelled", "arena_id", id, "reason", reason)
	return s.update(ctx, id, core.ArenaPatch{Status: &status, CancelReason: &reason})
}

// Delete removes an arena that has not completed. Only the creator may delete.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.store.GetArena(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get arena: %w", err)
	}
	if a == nil {
		return core.NewNotFoundError("arena", id)
	}
	if userID != a.CreatorID {
		return core.Forbiddenf("only the creator can delete arena %s", id)
	}
	if a.Status == core.ArenaCompleted {
		return core.Preconditionf("delete", "arena is completed")
	}
	if err := s.store.DeleteArena(ctx, id); err != nil {
		return err
	}
	slog.Info("Arena deleted", "arena_id", id)
	return nil
}
