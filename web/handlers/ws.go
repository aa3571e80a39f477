package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/alienxp03/debatearena/internal/stream"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsSink writes each event as one JSON text message.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(ev stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(ev)
}

// handleArenaWebSocket is the websocket flavour of handleArenaStream. The
// connection closes after the final event.
func (h *Handler) handleArenaWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := userID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Failed to upgrade connection", "arena_id", id, "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("WebSocket read error", "arena_id", id, "error", err)
				}
				return
			}
		}
	}()

	sink := &wsSink{conn: conn}
	if err := h.emitter.Stream(r.Context(), sink, h.source(), id, user); err != nil {
		slog.Debug("Arena websocket ended", "arena_id", id, "error", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteWait))
}
