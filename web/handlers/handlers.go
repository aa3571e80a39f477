// Package handlers provides the HTTP API: arenas, agents, packs, matches and
// live match streams.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/debatearena/internal/arena"
	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/guard"
	"github.com/alienxp03/debatearena/internal/stream"
	"github.com/alienxp03/debatearena/provider"
)

// UserHeader carries the caller's identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	arenas      *arena.Service
	engine      *engine.Engine
	registry    *provider.Registry
	emitter     *stream.Emitter
	healthCache *healthCache
}

// New creates a new Handler.
func New(arenas *arena.Service, eng *engine.Engine, registry *provider.Registry, emitter *stream.Emitter) *Handler {
	if emitter == nil {
		emitter = stream.NewEmitter(0, 0)
	}
	return &Handler{
		arenas:      arenas,
		engine:      eng,
		registry:    registry,
		emitter:     emitter,
		healthCache: newHealthCache(defaultHealthCachePath(), healthCacheTTL),
	}
}

// Routes returns the router with every API route registered.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.handleAPIProviders)
		r.Get("/providers/health/{name}", h.handleAPIProviderHealth)

		r.Route("/arenas", func(r chi.Router) {
			r.Get("/", h.handleListArenas)
			r.Post("/", h.handleCreateArena)
			r.Get("/code/{code}", h.handleGetArenaByCode)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetArena)
				r.Delete("/", h.handleDeleteArena)
				r.Post("/join", h.handleJoinArena)
				r.Post("/ready", h.handleSetReady)
				r.Post("/select", h.handleSelectAgent)
				r.Post("/start", h.handleStartDebate)
				r.Post("/authoring", h.handleAuthoring)
				r.Post("/draft", h.handleSaveDraft)
				r.Post("/submit", h.handleSubmitKnowledge)
				r.Post("/cancel", h.handleCancelArena)
				r.Get("/stream", h.handleArenaStream)
				r.Get("/ws", h.handleArenaWebSocket)
			})
		})

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.handleListAgents)
			r.Post("/", h.handleCreateAgent)
			r.Get("/{id}", h.handleGetAgent)
		})
		r.Route("/packs", func(r chi.Router) {
			r.Get("/", h.handleListPacks)
			r.Post("/", h.handleCreatePack)
			r.Get("/{id}", h.handleGetPack)
		})
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.handleListMatches)
			r.Post("/", h.handleRunMatch)
			r.Get("/{id}", h.handleGetMatch)
			r.Get("/{id}/export/{format}", h.handleExportMatch)
		})
		r.Get("/leaderboard", h.handleLeaderboard)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// userID reads the caller from the header. Browsers cannot set headers on
// EventSource or websocket requests, so the "user" query parameter is
// accepted as well.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

func pageParams(r *http.Request, defLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = defLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, guard.ErrBusy):
		return http.StatusAccepted
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, core.ErrGeneration):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) json(w http.ResponseWriter, data any) {
	h.jsonStatus(w, http.StatusOK, data)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	h.jsonStatus(w, code, map[string]string{"error": message})
}

// fail writes err with its mapped status. Unexpected errors are logged and
// their detail is not exposed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.jsonError(w, "internal error", code)
		return
	}
	h.jsonError(w, err.Error(), code)
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		h.jsonError(w, "missing "+UserHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}
