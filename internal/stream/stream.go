// Package stream turns a match into paced text events, either by replaying a
// stored match or by running one live.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/guard"
)

// Event types.
const (
	EventStageStart = "stage_start"
	EventChunk      = "chunk"
	EventScores     = "scores"
	EventComplete   = "complete"
	EventStatus     = "status"
	EventError      = "error"
)

// StatusAlreadyGenerating is sent when another subscriber's run holds the guard.
const StatusAlreadyGenerating = "already_generating"

// Event is one message to a subscriber.
type Event struct {
	Type          string              `json:"type"`
	Stage         string              `json:"stage,omitempty"`
	AgentID       string              `json:"agent_id,omitempty"`
	Side          core.Side           `json:"side,omitempty"`
	Text          string              `json:"text,omitempty"`
	ScoreA        float64             `json:"score_a,omitempty"`
	ScoreB        float64             `json:"score_b,omitempty"`
	WinnerAgentID string              `json:"winner_agent_id,omitempty"`
	Verdicts      []core.JudgeVerdict `json:"verdicts,omitempty"`
	MatchID       string              `json:"match_id,omitempty"`
	Status        string              `json:"status,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// Sink delivers events to one subscriber.
type Sink interface {
	Send(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

// Send calls f.
func (f SinkFunc) Send(ev Event) error { return f(ev) }

// Defaults for chunking.
const (
	DefaultChunkSize  = 30
	DefaultChunkDelay = 40 * time.Millisecond
)

// Emitter paces match text into chunk events.
type Emitter struct {
	ChunkSize int
	Delay     time.Duration
}

// NewEmitter creates an emitter. Non-positive values use the defaults; a
// negative delay disables pacing.
func NewEmitter(chunkSize int, delay time.Duration) *Emitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delay == 0 {
		delay = DefaultChunkDelay
	}
	if delay < 0 {
		delay = 0
	}
	return &Emitter{ChunkSize: chunkSize, Delay: delay}
}

// Chunk splits text into pieces of at most size runes.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func (e *Emitter) pause(ctx context.Context) error {
	if e.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Emitter) entry(ctx context.Context, sink Sink, entry core.RoundEntry, side core.Side) error {
	for _, c := range Chunk(entry.Text, e.ChunkSize) {
		ev := Event{Type: EventChunk, Stage: entry.Stage.String(), AgentID: entry.AgentID, Side: side, Text: c}
		if err := sink.Send(ev); err != nil {
			return err
		}
		if err := e.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) finish(sink Sink, m *core.Match) error {
	if err := sink.Send(Event{
		Type:          EventScores,
		ScoreA:        m.ScoreA,
		ScoreB:        m.ScoreB,
		WinnerAgentID: m.WinnerAgentID,
		Verdicts:      m.JudgeVerdicts,
	}); err != nil {
		return err
	}
	return sink.Send(Event{Type: EventComplete, MatchID: m.ID})
}

// Replay emits a stored match stage by stage.
func (e *Emitter) Replay(ctx context.Context, sink Sink, m *core.Match) error {
	for _, s := range core.Stages {
		if err := sink.Send(Event{Type: EventStageStart, Stage: s.String()}); err != nil {
			return err
		}
		for _, entry := range m.Transcript {
			if entry.Stage != s || entry.AgentID != m.AgentAID {
				continue
			}
			if err := e.entry(ctx, sink, entry, core.SidePros); err != nil {
				return err
			}
		}
		for _, entry := range m.Transcript {
			if entry.Stage != s || entry.AgentID != m.AgentBID {
				continue
			}
			if err := e.entry(ctx, sink, entry, core.SideCons); err != nil {
				return err
			}
		}
	}
	return e.finish(sink, m)
}

// Source looks up arenas and matches and runs live generation.
type Source interface {
	Arena(ctx context.Context, id string) (*core.Arena, error)
	Match(ctx context.Context, id string) (*core.Match, error)
	RunLive(ctx context.Context, id, userID string, obs engine.Observer) (*core.Match, error)
}

// liveObserver forwards generation progress to a sink. Once the sink fails
// it stops sending; the run itself continues.
type liveObserver struct {
	ctx    context.Context
	e      *Emitter
	sink   Sink
	arena  *core.Arena
	failed error
}

func (o *liveObserver) StageStarted(s core.Stage) {
	if o.failed != nil {
		return
	}
	o.failed = o.sink.Send(Event{Type: EventStageStart, Stage: s.String()})
}

func (o *liveObserver) EntryGenerated(entry core.RoundEntry) {
	if o.failed != nil {
		return
	}
	side := core.SideCons
	if entry.AgentID == o.arena.ProsAgentID {
		side = core.SidePros
	}
	o.failed = o.e.entry(o.ctx, o.sink, entry, side)
	if o.failed != nil {
		slog.Debug("Stream subscriber gone, run continues", "arena_id", o.arena.ID, "error", o.failed)
	}
}

// Stream replays the arena's match if it has one, otherwise runs it live.
// A busy guard yields a single status event and no error.
func (e *Emitter) Stream(ctx context.Context, sink Sink, src Source, arenaID, userID string) error {
	a, err := src.Arena(ctx, arenaID)
	if err != nil {
		return e.fail(sink, err)
	}

	if a.MatchID != "" {
		m, err := src.Match(ctx, a.MatchID)
		if err != nil {
			return e.fail(sink, err)
		}
		return e.Replay(ctx, sink, m)
	}

	obs := &liveObserver{ctx: ctx, e: e, sink: sink, arena: a}
	m, err := src.RunLive(ctx, arenaID, userID, obs)
	if errors.Is(err, guard.ErrBusy) {
		return sink.Send(Event{Type: EventStatus, Status: StatusAlreadyGenerating})
	}
	if err != nil {
		return e.fail(sink, err)
	}
	if obs.failed != nil {
		return obs.failed
	}
	return e.finish(sink, m)
}

func (e *Emitter) fail(sink Sink, err error) error {
	if sendErr := sink.Send(Event{Type: EventError, Message: err.Error()}); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}
