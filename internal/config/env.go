package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file and returns its key-value pairs.
func LoadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// ProcessEnv returns the process environment as a map.
func ProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}

func parseDuration(val string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second, true
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, true
	}
	return 0, false
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val, ok := env["DATABASE_PATH"]; ok && val != "" {
		cfg.Storage.Path = val
	}

	// Defaults
	if val, ok := env["DEFAULT_PROVIDER"]; ok {
		cfg.Defaults.Provider = val
	}
	if val, ok := env["DEFAULT_MODEL"]; ok {
		cfg.Defaults.Model = val
	}

	// Debate and arena
	if val, ok := env["ELO_K_FACTOR"]; ok {
		if k, err := strconv.ParseFloat(val, 64); err == nil && k > 0 {
			cfg.Debate.KFactor = k
		}
	}
	if val, ok := env["ARENA_WRITING_MINUTES"]; ok {
		if m, err := strconv.Atoi(val); err == nil {
			cfg.Arena.WritingMinutes = m
		}
	}
	if val, ok := env["ARENA_MIN_DRAFT_WORDS"]; ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Arena.MinDraftWords = n
		}
	}
	if val, ok := env["STREAM_CHUNK_DELAY"]; ok {
		if d, ok := parseDuration(val); ok {
			cfg.Stream.ChunkDelay = d
		}
	}

	for name, provider := range cfg.Providers {
		envKey := fmt.Sprintf("PROVIDER_%s_ENABLED", strings.ToUpper(name))
		if val, ok := env[envKey]; ok {
			if boolVal, err := strconv.ParseBool(val); err == nil {
				provider.Enabled = boolVal
			}
		}
		if val, ok := env["PROVIDER_TIMEOUT"]; ok {
			if d, ok := parseDuration(val); ok {
				provider.Timeout = d
			}
		}
		cfg.Providers[name] = provider
	}
}
