package core

import (
	"strings"
	"time"
)

// ArenaStatus is the lifecycle state of an arena.
type ArenaStatus string

const (
	ArenaWaiting     ArenaStatus = "waiting"
	ArenaSelectAgent ArenaStatus = "select_agent"
	ArenaChallenge   ArenaStatus = "challenge"
	ArenaMatching    ArenaStatus = "matching"
	ArenaCompleted   ArenaStatus = "completed"
	ArenaCancelled   ArenaStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s ArenaStatus) Terminal() bool {
	return s == ArenaCompleted || s == ArenaCancelled
}

// GameType selects how agents enter an arena.
type GameType string

const (
	// GameImport lets each side pick an agent it already owns.
	GameImport GameType = "import"
	// GameChallenge makes each side author knowledge under a time budget.
	GameChallenge GameType = "challenge"
)

// Valid reports whether t is a known game type.
func (t GameType) Valid() bool {
	return t == GameImport || t == GameChallenge
}

// Side is the position a participant argues.
type Side string

const (
	SideNone Side = ""
	SidePros Side = "pros"
	SideCons Side = "cons"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	switch s {
	case SidePros:
		return SideCons
	case SideCons:
		return SidePros
	}
	return SideNone
}

// Role identifies a participant within an arena.
type Role string

const (
	RoleCreator Role = "creator"
	RoleJoiner  Role = "joiner"
)

// WritingStatus is the state of one participant's authoring clock.
type WritingStatus string

const (
	WritingIdle     WritingStatus = "idle"
	WritingActive   WritingStatus = "writing"
	WritingPaused   WritingStatus = "paused"
	WritingFinished WritingStatus = "finished"
)

// AuthoringState is one participant's timed authoring progress in a
// challenge arena. Timestamps are kept so elapsed time can be recomputed
// from storage at any later read. OpenedAt is when the arena entered the
// challenge state; it bounds how long a participant may wait before starting.
type AuthoringState struct {
	Status        WritingStatus `json:"status"`
	OpenedAt      *time.Time    `json:"opened_at,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	PausedAt      *time.Time    `json:"paused_at,omitempty"`
	PausedSeconds float64       `json:"paused_seconds"`
	DraftText     string        `json:"draft_text,omitempty"`
	DraftName     string        `json:"draft_name,omitempty"`
	Submitted     bool          `json:"submitted"`
}

// NewAuthoringState returns an idle authoring state.
func NewAuthoringState() AuthoringState {
	return AuthoringState{Status: WritingIdle}
}

// Elapsed returns (now - StartedAt) - PausedSeconds. PausedSeconds only grows
// when a pause is settled on resume or finish, so an open pause keeps
// counting against the budget until it ends.
func (a AuthoringState) Elapsed(now time.Time) time.Duration {
	if a.StartedAt == nil {
		return 0
	}
	paused := time.Duration(a.PausedSeconds * float64(time.Second))
	elapsed := now.Sub(*a.StartedAt) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Expired reports whether the writing budget ran out at now. A participant
// who never started is measured from OpenedAt.
func (a AuthoringState) Expired(now time.Time, budget time.Duration) bool {
	switch {
	case a.Submitted || a.Status == WritingFinished:
		return false
	case a.StartedAt != nil:
		return a.Elapsed(now) > budget
	case a.OpenedAt != nil:
		return now.Sub(*a.OpenedAt) > budget
	}
	return false
}

// Open reports whether the clock has started and no submission happened yet.
func (a AuthoringState) Open() bool {
	return a.Status == WritingActive || a.Status == WritingPaused
}

// DraftWords counts the words of the current draft.
func (a AuthoringState) DraftWords() int {
	return len(strings.Fields(a.DraftText))
}

// Arena is a two-party session that precedes and triggers a debate.
type Arena struct {
	ID               string         `json:"id"`
	Code             string         `json:"code"`
	Topic            string         `json:"topic"`
	CreatorID        string         `json:"creator_id"`
	JoinerID         string         `json:"joiner_id,omitempty"`
	GameType         GameType       `json:"game_type"`
	Status           ArenaStatus    `json:"status"`
	CreatorReady     bool           `json:"creator_ready"`
	JoinerReady      bool           `json:"joiner_ready"`
	CreatorSide      Side           `json:"creator_side,omitempty"`
	JoinerSide       Side           `json:"joiner_side,omitempty"`
	ProsAgentID      string         `json:"pros_agent_id,omitempty"`
	ConsAgentID      string         `json:"cons_agent_id,omitempty"`
	WritingMinutes   int            `json:"writing_minutes,omitempty"`
	CreatorAuthoring AuthoringState `json:"creator_authoring"`
	JoinerAuthoring  AuthoringState `json:"joiner_authoring"`
	MatchID          string         `json:"match_id,omitempty"`
	CancelReason     string         `json:"cancel_reason,omitempty"`
	LastError        string         `json:"last_error,omitempty"`
	Version          int64          `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RoleOf returns the role of userID in the arena.
func (a *Arena) RoleOf(userID string) (Role, bool) {
	switch {
	case userID == "":
		return "", false
	case userID == a.CreatorID:
		return RoleCreator, true
	case userID == a.JoinerID:
		return RoleJoiner, true
	}
	return "", false
}

// SideOf returns the side assigned to a role.
func (a *Arena) SideOf(role Role) Side {
	if role == RoleCreator {
		return a.CreatorSide
	}
	return a.JoinerSide
}

// Authoring returns the authoring state of a role.
func (a *Arena) Authoring(role Role) AuthoringState {
	if role == RoleCreator {
		return a.CreatorAuthoring
	}
	return a.JoinerAuthoring
}

// SlotAgent returns the agent id occupying a side's slot.
func (a *Arena) SlotAgent(side Side) string {
	switch side {
	case SidePros:
		return a.ProsAgentID
	case SideCons:
		return a.ConsAgentID
	}
	return ""
}

// BothReady reports whether both participants flagged ready.
func (a *Arena) BothReady() bool {
	return a.JoinerID != "" && a.CreatorReady && a.JoinerReady
}

// BothSlotsFilled reports whether both agent slots are set.
func (a *Arena) BothSlotsFilled() bool {
	return a.ProsAgentID != "" && a.ConsAgentID != ""
}

// ArenaPatch is a partial update. Nil fields keep their stored value.
type ArenaPatch struct {
	Status           *ArenaStatus
	JoinerID         *string
	CreatorReady     *bool
	JoinerReady      *bool
	CreatorSide      *Side
	JoinerSide       *Side
	ProsAgentID      *string
	ConsAgentID      *string
	CreatorAuthoring *AuthoringState
	JoinerAuthoring  *AuthoringState
	MatchID          *string
	CancelReason     *string
	LastError        *string
}

// Empty reports whether the patch changes nothing.
func (p ArenaPatch) Empty() bool {
	return p == ArenaPatch{}
}

// SetAuthoring sets the authoring field for a role.
func (p *ArenaPatch) SetAuthoring(role Role, state AuthoringState) {
	if role == RoleCreator {
		p.CreatorAuthoring = &state
		return
	}
	p.JoinerAuthoring = &state
}

// SetSlot sets the agent slot for a side.
func (p *ArenaPatch) SetSlot(side Side, agentID string) {
	if side == SidePros {
		p.ProsAgentID = &agentID
		return
	}
	p.ConsAgentID = &agentID
}

// Apply returns a copy of a with the patch applied.
func (p ArenaPatch) Apply(a Arena) Arena {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.JoinerID != nil {
		a.JoinerID = *p.JoinerID
	}
	if p.CreatorReady != nil {
		a.CreatorReady = *p.CreatorReady
	}
	if p.JoinerReady != nil {
		a.JoinerReady = *p.JoinerReady
	}
	if p.CreatorSide != nil {
		a.CreatorSide = *p.CreatorSide
	}
	if p.JoinerSide != nil {
		a.JoinerSide = *p.JoinerSide
	}
	if p.ProsAgentID != nil {
		a.ProsAgentID = *p.ProsAgentID
	}
	if p.ConsAgentID != nil {
		a.ConsAgentID = *p.ConsAgentID
	}
	if p.CreatorAuthoring != nil {
		a.CreatorAuthoring = *p.CreatorAuthoring
	}
	if p.JoinerAuthoring != nil {
		a.JoinerAuthoring = *p.JoinerAuthoring
	}
	if p.MatchID != nil {
		a.MatchID = *p.MatchID
	}
	if p.CancelReason != nil {
		a.CancelReason = *p.CancelReason
	}
	if p.LastError != nil {
		a.LastError = *p.LastError
	}
	return a
}

// NewArenaConfig holds the input for creating an arena.
type NewArenaConfig struct {
	CreatorID      string   `json:"creator_id"`
	Topic          string   `json:"topic"`
	GameType       GameType `json:"game_type"`
	WritingMinutes int      `json:"writing_minutes"`
}
