package handlers

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alienxp03/debatearena/provider"
)

const (
	healthCacheFilename = "debatearena-provider-health.json"
	healthCacheTTL      = 30 * time.Minute
)

// healthCache remembers successful provider probes on disk so a restarted
// server does not re-run slow CLI health checks. Entries are keyed by
// provider and model; failures are never stored.
type healthCache struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	once    sync.Once
	mu      sync.Mutex
	entries map[string]provider.HealthStatus
}

type healthCacheFile struct {
	SavedAt time.Time                        `json:"saved_at"`
	Entries map[string]provider.HealthStatus `json:"entries"`
}

func newHealthCache(path string, ttl time.Duration) *healthCache {
	if ttl <= 0 {
		ttl = healthCacheTTL
	}
	return &healthCache{
		path:    path,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]provider.HealthStatus),
	}
}

func defaultHealthCachePath() string {
	return filepath.Join(os.TempDir(), healthCacheFilename)
}

func healthKey(p provider.Provider) string {
	if ml, ok := p.(modelLister); ok && ml.DefaultModel() != "" {
		return p.Name() + "/" + ml.DefaultModel()
	}
	return p.Name()
}

// Lookup returns a stored probe younger than the TTL.
func (c *healthCache) Lookup(key string) (provider.HealthStatus, bool) {
	c.once.Do(c.load)
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.entries[key]
	if !ok || status.CheckedAt.IsZero() || c.now().Sub(status.CheckedAt) > c.ttl {
		return provider.HealthStatus{}, false
	}
	return status, true
}

// Store records a successful probe and writes the cache file.
func (c *healthCache) Store(key string, status provider.HealthStatus) {
	if !status.Available {
		return
	}
	c.once.Do(c.load)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = status
	c.save()
}

func (c *healthCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read provider health cache", "path", c.path, "error", err)
		}
		return
	}

	var file healthCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("Failed to parse provider health cache", "path", c.path, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, status := range file.Entries {
		if status.Available {
			c.entries[key] = status
		}
	}
}

func (c *healthCache) save() {
	payload, err := json.MarshalIndent(healthCacheFile{SavedAt: c.now(), Entries: c.entries}, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode provider health cache", "path", c.path, "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		slog.Warn("Failed to create provider health cache directory", "path", c.path, "error", err)
		return
	}
	if err := os.WriteFile(c.path, payload, 0o644); err != nil {
		slog.Warn("Failed to write provider health cache", "path", c.path, "error", err)
	}
}
