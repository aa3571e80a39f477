package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/debatearena/provider"
)

type modelLister interface {
	Models() []string
	DefaultModel() string
}

func (h *Handler) handleAPIProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.List()
	result := make([]map[string]any, 0, len(providers))

	for _, p := range providers {
		entry := map[string]any{
			"name":      p.Name(),
			"available": p.Available(),
		}
		if ml, ok := p.(modelLister); ok {
			entry["models"] = ml.Models()
			entry["default_model"] = ml.DefaultModel()
		}
		result = append(result, entry)
	}

	h.json(w, result)
}

func (h *Handler) handleAPIProviderHealth(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := h.registry.Get(name)
	if errors.Is(err, provider.ErrUnknownProvider) {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	key := healthKey(p)
	status, cached := h.healthCache.Lookup(key)
	if !cached {
		status = checkHealth(r.Context(), p)
		h.healthCache.Store(key, status)
	}

	h.json(w, map[string]any{
		"name":          name,
		"available":     status.Available,
		"response_time": status.ResponseTime.Seconds(),
		"error":         status.Error,
		"checked_at":    status.CheckedAt,
		"cached":        cached,
	})
}

func checkHealth(ctx context.Context, p provider.Provider) provider.HealthStatus {
	if hc, ok := p.(provider.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	status := provider.HealthStatus{Available: p.Available(), CheckedAt: time.Now()}
	if !status.Available {
		status.Error = "CLI not found"
	}
	return status
}
