package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/export"
)

func (h *Handler) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var cfg core.NewAgentConfig
	if err := decode(r, &cfg); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg.OwnerID = userID(r)

	agent, err := h.engine.CreateAgent(r.Context(), cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, agent)
}

func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.engine.ListAgents(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if agents == nil {
		agents = []*core.Agent{}
	}
	h.json(w, agents)
}

func (h *Handler) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.engine.GetAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, agent)
}

func (h *Handler) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		Fragments []string `json:"fragments"`
	}
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pack, err := h.engine.CreatePack(r.Context(), userID(r), req.Name, req.Fragments)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, pack)
}

func (h *Handler) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.engine.ListPacks(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if packs == nil {
		packs = []*core.KnowledgePack{}
	}
	h.json(w, packs)
}

func (h *Handler) handleGetPack(w http.ResponseWriter, r *http.Request) {
	pack, err := h.engine.GetPack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, pack)
}

func (h *Handler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 20)
	matches, err := h.engine.ListMatches(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if matches == nil {
		matches = []*core.MatchSummary{}
	}
	h.json(w, matches)
}

// handleRunMatch runs a debate between two existing agents outside any arena
// and answers once it is scored.
func (h *Handler) handleRunMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic    string `json:"topic"`
		AgentAID string `json:"agent_a_id"`
		AgentBID string `json:"agent_b_id"`
	}
	if err := decode(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.engine.RunMatch(r.Context(), engine.MatchRequest{
		Topic:    req.Topic,
		AgentAID: req.AgentAID,
		AgentBID: req.AgentBID,
	}, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, m)
}

func (h *Handler) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.engine.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, m)
}

func (h *Handler) handleExportMatch(w http.ResponseWriter, r *http.Request) {
	exporter, err := export.GetExporter(export.Format(chi.URLParam(r, "format")))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.document(r, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(doc, &buf); err != nil {
		h.fail(w, r, fmt.Errorf("failed to export match: %w", err))
		return
	}

	filename := export.GenerateFilename(doc.Match, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// document loads a match and its agents. Deleted agents are left nil.
func (h *Handler) document(r *http.Request, matchID string) (*export.Document, error) {
	m, err := h.engine.GetMatch(r.Context(), matchID)
	if err != nil {
		return nil, err
	}
	doc := &export.Document{Match: m}
	doc.AgentA, _ = h.engine.GetAgent(r.Context(), m.AgentAID)
	doc.AgentB, _ = h.engine.GetAgent(r.Context(), m.AgentBID)
	return doc, nil
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	ratings, err := h.engine.Leaderboard(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []*core.Rating{}
	}
	h.json(w, ratings)
}
