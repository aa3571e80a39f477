// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/persona"
	"github.com/alienxp03/debatearena/provider"
	"github.com/alienxp03/debatearena/provider/claude"
	"github.com/alienxp03/debatearena/provider/gemini"
	"github.com/alienxp03/debatearena/provider/generic"
	"github.com/alienxp03/debatearena/provider/mock"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Storage   StorageConfig             `yaml:"storage"`
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Judges    []JudgeConfig             `yaml:"judges"`
	Personas  []PersonaConfig           `yaml:"personas,omitempty"`
	Debate    DebateConfig              `yaml:"debate"`
	Arena     ArenaConfig               `yaml:"arena"`
	Stream    StreamConfig              `yaml:"stream"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds the database location.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DefaultsConfig holds the provider used when an agent or judge names none.
type DefaultsConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Models       []string      `yaml:"models,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	Enabled      bool          `yaml:"enabled"`
}

// JudgeConfig configures one of the judges.
type JudgeConfig struct {
	ID       string `yaml:"id"`
	Persona  string `yaml:"persona"`
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// PersonaConfig holds custom judge persona definitions.
type PersonaConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt"`
}

// DebateConfig holds match settings.
type DebateConfig struct {
	KFactor float64 `yaml:"k_factor"`
	// Conclusion enables the summary written after scoring.
	Conclusion bool `yaml:"conclusion"`
}

// ArenaConfig holds arena settings.
type ArenaConfig struct {
	WritingMinutes int           `yaml:"writing_minutes"`
	MinDraftWords  int           `yaml:"min_draft_words"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// StreamConfig holds replay pacing.
type StreamConfig struct {
	ChunkSize  int           `yaml:"chunk_size"`
	ChunkDelay time.Duration `yaml:"chunk_delay"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8182,
		},
		Defaults: DefaultsConfig{
			Provider: "mock",
		},
		Providers: map[string]ProviderConfig{
			"claude": {
				Command:    "claude",
				Args:       []string{"--print"},
				Models:     []string{"opus", "sonnet", "haiku"},
				Timeout:    5 * time.Minute,
				MaxRetries: 2,
				Enabled:    true,
			},
			"gemini": {
				Command:    "gemini",
				Models:     []string{"pro", "flash"},
				Timeout:    5 * time.Minute,
				MaxRetries: 2,
				Enabled:    true,
			},
			"mock": {
				Command:      "mock",
				DefaultModel: "mock-v1",
				Models:       []string{"mock-v1"},
				Timeout:      time.Minute,
				Enabled:      true,
			},
		},
		Judges: []JudgeConfig{
			{ID: "judge-logician", Persona: "logician"},
			{ID: "judge-fact-checker", Persona: "fact_checker"},
			{ID: "judge-moderator", Persona: "moderator"},
			{ID: "judge-audience", Persona: "audience"},
		},
		Debate: DebateConfig{
			KFactor:    32,
			Conclusion: true,
		},
		Arena: ArenaConfig{
			WritingMinutes: 10,
			MinDraftWords:  50,
			SweepInterval:  15 * time.Second,
		},
		Stream: StreamConfig{
			ChunkSize:  30,
			ChunkDelay: 40 * time.Millisecond,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, then applies .env and
// process environment overrides (the process environment wins).
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge with defaults for any missing providers
	for name, defaultProvider := range Default().Providers {
		if _, exists := cfg.Providers[name]; !exists {
			cfg.Providers[name] = defaultProvider
		}
	}
	if len(cfg.Judges) == 0 {
		cfg.Judges = Default().Judges
	}

	env, err := LoadEnv(".env")
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	if env == nil {
		env = map[string]string{}
	}
	for k, v := range ProcessEnv() {
		env[k] = v
	}
	ApplyEnvOverrides(cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the application cannot run without.
func (c *Config) Validate() error {
	if len(c.Judges) != core.JudgeCount {
		return fmt.Errorf("exactly %d judges must be configured, got %d", core.JudgeCount, len(c.Judges))
	}
	custom := c.CustomPersonas()
	for _, j := range c.Judges {
		if persona.Resolve(j.Persona, custom) == nil {
			return fmt.Errorf("judge %s: unknown persona %q", j.ID, j.Persona)
		}
	}
	if c.Arena.WritingMinutes < 0 || c.Arena.MinDraftWords < 0 {
		return fmt.Errorf("arena limits must not be negative")
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetProvider returns the configuration for a provider.
func (c *Config) GetProvider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ToProviderConfig converts a ProviderConfig to provider.Config.
func (p ProviderConfig) ToProviderConfig(name string) provider.Config {
	return provider.Config{
		Name:         name,
		Command:      p.Command,
		Args:         p.Args,
		DefaultModel: p.DefaultModel,
		Models:       p.Models,
		Timeout:      p.Timeout,
		MaxRetries:   p.MaxRetries,
	}
}

// createProviderFromName creates a provider instance based on the provider name.
func createProviderFromName(name string, cfg provider.Config) provider.Provider {
	switch name {
	case "claude":
		return claude.New(cfg)
	case "gemini":
		return gemini.New(cfg)
	case "mock":
		return mock.New(cfg)
	default:
		// Unknown providers fall back to generic
		return generic.New(cfg)
	}
}

// CreateRegistry creates a provider registry from the enabled providers.
func (c *Config) CreateRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	for name, provCfg := range c.Providers {
		if !provCfg.Enabled {
			continue
		}
		registry.Register(createProviderFromName(name, provCfg.ToProviderConfig(name)))
	}
	return registry
}

// CustomPersonas converts configured personas.
func (c *Config) CustomPersonas() []persona.Persona {
	out := make([]persona.Persona, 0, len(c.Personas))
	for _, p := range c.Personas {
		out = append(out, persona.Persona{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			SystemPrompt: p.SystemPrompt,
		})
	}
	return out
}

// JudgeProfiles converts the judge list for the engine.
func (c *Config) JudgeProfiles() []engine.JudgeProfile {
	out := make([]engine.JudgeProfile, 0, len(c.Judges))
	for _, j := range c.Judges {
		out = append(out, engine.JudgeProfile{
			ID:       j.ID,
			Persona:  j.Persona,
			Provider: j.Provider,
			Model:    j.Model,
		})
	}
	return out
}

// DatabasePath returns the configured database path or the default one.
func (c *Config) DatabasePath(fallback string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return fallback
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debatearena.yaml"
	}
	return filepath.Join(home, ".debatearena", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	return `# debatearena configuration file
# Place this file at ~/.debatearena/config.yaml

server:
  port: 8182

storage:
  path: ""                  # empty = ~/.debatearena/debatearena.db

defaults:
  provider: mock            # Provider for agents and judges that name none
  model: ""                 # Default model (empty = provider default)

providers:
  claude:
    command: claude
    args: ["--print"]
    models: ["opus", "sonnet", "haiku"]
    timeout: 5m
    max_retries: 2          # Retry failed commands (default: 2, total 3 attempts)
    enabled: true

  gemini:
    command: gemini
    models: ["pro", "flash"]
    timeout: 5m
    enabled: true

  mock:
    command: mock
    default_model: mock-v1
    enabled: true

# Exactly four judges score every debate.
judges:
  - id: judge-logician
    persona: logician
  - id: judge-fact-checker
    persona: fact_checker
  - id: judge-moderator
    persona: moderator
    provider: claude
    model: haiku
  - id: judge-audience
    persona: audience

debate:
  k_factor: 32              # Elo update factor
  conclusion: true          # Write a short summary after scoring

arena:
  writing_minutes: 10       # Authoring budget in challenge arenas
  min_draft_words: 50       # Shorter drafts cancel the arena at timeout
  sweep_interval: 15s

stream:
  chunk_size: 30
  chunk_delay: 40ms

# Custom judge personas (optional)
personas:
  - id: economist
    name: Economist
    description: Weighs costs, incentives and evidence
    system_prompt: |
      You are an economist acting as judge. Your approach:
      - Reward arguments that account for costs and incentives
      - Penalize claims without evidence
`
}
