// Package core contains the core domain types for the debate arena.
package core

import (
	"strings"
	"time"
)

// Stage is one of the seven fixed phases of a debate.
type Stage int

const (
	StageOpening Stage = iota
	StageDirectArguments
	StageRebuttal
	StageCounterRebuttal
	StageCrossQuestion
	StageCrossAnswer
	StageFinalArguments
)

// Stages is the debate order. It never changes between debates.
var Stages = []Stage{
	StageOpening,
	StageDirectArguments,
	StageRebuttal,
	StageCounterRebuttal,
	StageCrossQuestion,
	StageCrossAnswer,
	StageFinalArguments,
}

var stageNames = map[Stage]string{
	StageOpening:         "opening",
	StageDirectArguments: "direct_arguments",
	StageRebuttal:        "rebuttal",
	StageCounterRebuttal: "counter_rebuttal",
	StageCrossQuestion:   "cross_question",
	StageCrossAnswer:     "cross_answer",
	StageFinalArguments:  "final_arguments",
}

// String returns the stage identifier.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the seven stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// MarshalText encodes the stage as its identifier.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage identifier.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, ok := ParseStage(string(text))
	if !ok {
		return &PreconditionError{Op: "parse stage", Reason: "unknown stage " + string(text)}
	}
	*s = parsed
	return nil
}

// ParseStage looks up a stage by identifier.
func ParseStage(name string) (Stage, bool) {
	for s, n := range stageNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// TranscriptLength is the number of entries in a completed debate.
const TranscriptLength = 2 * 7

// RoundEntry is one agent's text for one stage.
type RoundEntry struct {
	Stage   Stage  `json:"stage"`
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
}

// VerdictMethod records how a judge's scores were derived.
type VerdictMethod string

const (
	MethodOverall     VerdictMethod = "overall"
	MethodCriteria    VerdictMethod = "criteria"
	MethodLengthRatio VerdictMethod = "length_ratio"
)

// JudgeVerdict is one judge's score pair for a finished transcript.
type JudgeVerdict struct {
	JudgeID string        `json:"judge_id"`
	ScoreA  float64       `json:"score_a"`
	ScoreB  float64       `json:"score_b"`
	Method  VerdictMethod `json:"method,omitempty"`
}

// JudgeCount is the number of verdicts every debate receives.
const JudgeCount = 4

// Match is the immutable record of a finished debate.
// Agent A argued the pros side, agent B the cons side.
type Match struct {
	ID             string         `json:"id"`
	Topic          string         `json:"topic"`
	AgentAID       string         `json:"agent_a_id"`
	AgentBID       string         `json:"agent_b_id"`
	Transcript     []RoundEntry   `json:"transcript"`
	JudgeVerdicts  []JudgeVerdict `json:"judge_verdicts"`
	ScoreA         float64        `json:"score_a"`
	ScoreB         float64        `json:"score_b"`
	WinnerAgentID  string         `json:"winner_agent_id,omitempty"`
	ConclusionText string         `json:"conclusion_text,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// EntriesFor returns the transcript entries of one agent in stage order.
func (m *Match) EntriesFor(agentID string) []RoundEntry {
	var out []RoundEntry
	for _, e := range m.Transcript {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	return out
}

// MatchSummary is a lightweight representation for listing matches.
type MatchSummary struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	AgentAID      string    `json:"agent_a_id"`
	AgentBID      string    `json:"agent_b_id"`
	ScoreA        float64   `json:"score_a"`
	ScoreB        float64   `json:"score_b"`
	WinnerAgentID string    `json:"winner_agent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Agent is a debater backed by one or more knowledge packs.
type Agent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	PackIDs   []string  `json:"pack_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAgentConfig holds the input for creating an agent. Knowledge, when
// non-empty, becomes a new pack owned by the same owner and is attached after
// PackIDs.
type NewAgentConfig struct {
	OwnerID   string   `json:"owner_id"`
	Name      string   `json:"name"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	PackIDs   []string `json:"pack_ids,omitempty"`
	Knowledge []string `json:"knowledge,omitempty"`
}

// KnowledgePack is a named set of knowledge fragments.
type KnowledgePack struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Fragments []string  `json:"fragments"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeSeparator joins knowledge fragments into an agent's knowledge text.
const KnowledgeSeparator = "\n\n---\n\n"

// JoinKnowledge concatenates the fragments of packs in order.
func JoinKnowledge(packs []*KnowledgePack) string {
	var fragments []string
	for _, p := range packs {
		for _, f := range p.Fragments {
			if strings.TrimSpace(f) == "" {
				continue
			}
			fragments = append(fragments, f)
		}
	}
	return strings.Join(fragments, KnowledgeSeparator)
}

// Rating is an owner's skill rating.
type Rating struct {
	OwnerID   string    `json:"owner_id"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultRating is the rating of an owner with no history.
const DefaultRating = 1000.0
