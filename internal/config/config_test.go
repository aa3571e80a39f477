package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Judges) != 4 {
		t.Errorf("expected 4 judges, got %d", len(cfg.Judges))
	}
	if cfg.Debate.KFactor != 32 || cfg.Arena.MinDraftWords != 50 || cfg.Stream.ChunkSize != 30 {
		t.Errorf("unexpected defaults: %+v %+v %+v", cfg.Debate, cfg.Arena, cfg.Stream)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	registry := cfg.CreateRegistry()
	if !registry.Has("mock") || !registry.Has("claude") {
		t.Errorf("expected default providers registered, got %v", registry.Names())
	}
}

func TestExampleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(GenerateExample()), 0644); err != nil {
		t.Fatalf("failed to write example: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("example config failed to load: %v", err)
	}
	if cfg.Judges[2].Provider != "claude" || cfg.Judges[2].Model != "haiku" {
		t.Errorf("judge overrides not read: %+v", cfg.Judges[2])
	}
	if cfg.Arena.SweepInterval != 15*time.Second {
		t.Errorf("expected 15s sweep interval, got %v", cfg.Arena.SweepInterval)
	}
	if len(cfg.CustomPersonas()) != 1 {
		t.Errorf("expected one custom persona, got %d", len(cfg.CustomPersonas()))
	}

	saved := filepath.Join(dir, "nested", "saved.yaml")
	if err := cfg.SaveTo(saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	again, err := LoadFrom(saved)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Server.Port != cfg.Server.Port || len(again.Judges) != len(cfg.Judges) {
		t.Error("saved config differs after reload")
	}
}

func TestValidateUnknownPersona(t *testing.T) {
	cfg := Default()
	cfg.Judges[3] = JudgeConfig{ID: "judge-oracle", Persona: "oracle"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown judge persona")
	}
	cfg.Personas = []PersonaConfig{{ID: "oracle", Name: "Oracle", SystemPrompt: "You see all."}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("custom persona should satisfy the judge: %v", err)
	}
}

func TestValidateJudgeCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		cfg := Default()
		judges := cfg.Judges
		for len(judges) < n {
			judges = append(judges, JudgeConfig{ID: fmt.Sprintf("extra-%d", len(judges)), Persona: "logician"})
		}
		cfg.Judges = judges[:n]
		if err := cfg.Validate(); err == nil {
			t.Errorf("%d judges: expected validation error", n)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if len(cfg.Providers) < 3 {
		t.Errorf("expected default providers, got %d", len(cfg.Providers))
	}
}
