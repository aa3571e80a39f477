package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatearena/internal/arena"
	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/guard"
	"github.com/alienxp03/debatearena/internal/stream"
)

type createArenaRequest struct {
	Topic          string        `json:"topic"`
	GameType       core.GameType `json:"game_type"`
	WritingMinutes int           `json:"writing_minutes"`
}

func (h *Handler) handleCreateArena(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req createArenaRequest
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.Create(r.Context(), core.NewArenaConfig{
		CreatorID:      user,
		Topic:          req.Topic,
		GameType:       req.GameType,
		WritingMinutes: req.WritingMinutes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, a)
}

func (h *Handler) handleListArenas(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 20)
	arenas, err := h.arenas.List(r.Context(), userID(r), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if arenas == nil {
		arenas = []*core.Arena{}
	}
	h.json(w, arenas)
}

func (h *Handler) handleGetArena(w http.ResponseWriter, r *http.Request) {
	a, err := h.arenas.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleGetArenaByCode(w http.ResponseWriter, r *http.Request) {
	a, err := h.arenas.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleDeleteArena(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.arenas.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleJoinArena(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	a, err := h.arenas.Join(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleSetReady(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	req := struct {
		Ready *bool `json:"ready"`
	}{}
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ready := true
	if req.Ready != nil {
		ready = *req.Ready
	}

	a, err := h.arenas.SetReady(r.Context(), chi.URLParam(r, "id"), user, ready)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleSelectAgent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := decode(r, &req); err != nil || req.AgentID == "" {
		h.jsonError(w, "agent_id is required", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.SelectAgent(r.Context(), chi.URLParam(r, "id"), user, req.AgentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

// handleStartDebate launches generation in the background and answers 202.
// A run already in progress is reported the same way.
func (h *Handler) handleStartDebate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	a, err := h.arenas.StartDebate(r.Context(), id, user)
	if errors.Is(err, guard.ErrBusy) {
		h.jsonStatus(w, http.StatusAccepted, map[string]string{"status": stream.StatusAlreadyGenerating})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusAccepted, a)
}

func (h *Handler) handleAuthoring(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Action arena.AuthoringAction `json:"action"`
	}
	if err := decode(r, &req); err != nil || req.Action == "" {
		h.jsonError(w, "action is required", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.ControlAuthoring(r.Context(), chi.URLParam(r, "id"), user, req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

type knowledgeRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req knowledgeRequest
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.SaveDraft(r.Context(), chi.URLParam(r, "id"), user, req.Name, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleSubmitKnowledge(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req knowledgeRequest
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.SubmitKnowledge(r.Context(), chi.URLParam(r, "id"), user, req.Name, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}

func (h *Handler) handleCancelArena(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.arenas.Cancel(r.Context(), chi.URLParam(r, "id"), user, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, a)
}
