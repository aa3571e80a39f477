package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatearena/internal/arena"
	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/stream"
)

// arenaSource lets the emitter look up arenas and matches and run live.
type arenaSource struct {
	arenas *arena.Service
	engine *engine.Engine
}

func (s arenaSource) Arena(ctx context.Context, id string) (*core.Arena, error) {
	return s.arenas.Get(ctx, id)
}

func (s arenaSource) Match(ctx context.Context, id string) (*core.Match, error) {
	return s.engine.GetMatch(ctx, id)
}

func (s arenaSource) RunLive(ctx context.Context, id, userID string, obs engine.Observer) (*core.Match, error) {
	_, m, err := s.arenas.RunLive(ctx, id, userID, obs)
	return m, err
}

func (h *Handler) source() stream.Source {
	return arenaSource{arenas: h.arenas, engine: h.engine}
}

// sseSink writes events as server-sent events.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(ev stream.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleArenaStream replays a finished arena or runs it live over
// Server-Sent Events.
func (h *Handler) handleArenaStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New arena stream connection", "arena_id", id, "remote_addr", r.RemoteAddr)

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher}
	if err := h.emitter.Stream(r.Context(), sink, h.source(), id, userID(r)); err != nil {
		slog.Debug("Arena stream ended", "arena_id", id, "error", err)
	}
}
