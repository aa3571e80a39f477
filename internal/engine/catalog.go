package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
)

// CreatePack stores a new knowledge pack. Blank fragments are dropped.
func (e *Engine) CreatePack(ctx context.Context, ownerID, name string, fragments []string) (*core.KnowledgePack, error) {
	var kept []string
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil, core.Preconditionf("create pack", "at least one non-empty fragment is required")
	}
	if strings.TrimSpace(name) == "" {
		name = "Untitled pack"
	}

	pack := &core.KnowledgePack{
		ID:        core.GenerateID(),
		OwnerID:   ownerID,
		Name:      name,
		Fragments: kept,
		CreatedAt: time.Now(),
	}
	if err := e.storage.CreatePack(ctx, pack); err != nil {
		return nil, fmt.Errorf("failed to create knowledge pack: %w", err)
	}
	return pack, nil
}

// CreateAgent stores a new agent. Referenced packs must exist and belong to
// the same owner.
func (e *Engine) CreateAgent(ctx context.Context, cfg core.NewAgentConfig) (*core.Agent, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, core.Preconditionf("create agent", "name is required")
	}
	if cfg.Provider != "" {
		if _, err := e.resolver.Generator(cfg.Provider, cfg.Model); err != nil {
			return nil, err
		}
	}

	packIDs := make([]string, 0, len(cfg.PackIDs)+1)
	for _, id := range cfg.PackIDs {
		pack, err := e.storage.GetPack(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge pack: %w", err)
		}
		if pack == nil {
			return nil, core.NewNotFoundError("knowledge pack", id)
		}
		if pack.OwnerID != cfg.OwnerID {
			return nil, core.Forbiddenf("knowledge pack %s belongs to another owner", id)
		}
		packIDs = append(packIDs, id)
	}

	if len(cfg.Knowledge) > 0 {
		pack, err := e.CreatePack(ctx, cfg.OwnerID, cfg.Name+" knowledge", cfg.Knowledge)
		if err != nil {
			return nil, err
		}
		packIDs = append(packIDs, pack.ID)
	}

	agent := &core.Agent{
		ID:        core.GenerateID(),
		OwnerID:   cfg.OwnerID,
		Name:      cfg.Name,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		PackIDs:   packIDs,
		CreatedAt: time.Now(),
	}
	if err := e.storage.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// GetAgent retrieves an agent by ID.
func (e *Engine) GetAgent(ctx context.Context, id string) (*core.Agent, error) {
	agent, err := e.storage.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, core.NewNotFoundError("agent", id)
	}
	return agent, nil
}

// ListAgents returns agents, optionally of a single owner.
func (e *Engine) ListAgents(ctx context.Context, ownerID string) ([]*core.Agent, error) {
	return e.storage.ListAgents(ctx, ownerID)
}

// GetPack retrieves a knowledge pack by ID.
func (e *Engine) GetPack(ctx context.Context, id string) (*core.KnowledgePack, error) {
	pack, err := e.storage.GetPack(ctx, id)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, core.NewNotFoundError("knowledge pack", id)
	}
	return pack, nil
}

// ListPacks returns knowledge packs, optionally of a single owner.
func (e *Engine) ListPacks(ctx context.Context, ownerID string) ([]*core.KnowledgePack, error) {
	return e.storage.ListPacks(ctx, ownerID)
}
