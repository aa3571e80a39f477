package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alienxp03/debatearena/internal/stream"
)

func TestArenaWebSocketStream(t *testing.T) {
	s := setupTestHandler(t)
	a := s.readyImportArena(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/arenas/" + a.ID + "/ws?user=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	var events []stream.Event
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var ev stream.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		events = append(events, ev)
		if ev.Type == stream.EventComplete || ev.Type == stream.EventError {
			break
		}
	}

	if len(events) == 0 {
		t.Fatal("expected events over websocket")
	}
	if events[0].Type != stream.EventStageStart || events[0].Stage != "opening" {
		t.Errorf("expected opening stage first, got %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Type != stream.EventComplete || last.MatchID == "" {
		t.Errorf("expected complete event with match id, got %+v", last)
	}

	var scores int
	for _, ev := range events {
		if ev.Type == stream.EventScores {
			scores++
		}
	}
	if scores != 1 {
		t.Errorf("expected exactly one scores event, got %d", scores)
	}
}
