package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alienxp03/debatearena/internal/core"
)

// CreateAgent inserts an agent.
func (s *SQLiteStorage) CreateAgent(ctx context.Context, agent *core.Agent) error {
	packIDs, err := marshalColumn(agent.PackIDs, "pack ids")
	if err != nil {
		return err
	}

	query := `
	INSERT INTO agents (id, owner_id, name, provider, model, pack_ids_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		agent.ID,
		agent.OwnerID,
		agent.Name,
		agent.Provider,
		agent.Model,
		packIDs,
		agent.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStorage) GetAgent(ctx context.Context, id string) (*core.Agent, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, owner_id, name, provider, model, pack_ids_json, created_at
	FROM agents WHERE id = ?`, id)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns agents newest first, optionally filtered by owner.
func (s *SQLiteStorage) ListAgents(ctx context.Context, ownerID string) ([]*core.Agent, error) {
	query := `SELECT id, owner_id, name, provider, model, pack_ids_json, created_at FROM agents`
	args := []any{}
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*core.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func scanAgent(row rowScanner) (*core.Agent, error) {
	var a core.Agent
	var packIDs string
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Provider, &a.Model, &packIDs, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(packIDs, &a.PackIDs, "pack ids"); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreatePack inserts a knowledge pack.
func (s *SQLiteStorage) CreatePack(ctx context.Context, pack *core.KnowledgePack) error {
	fragments, err := marshalColumn(pack.Fragments, "fragments")
	if err != nil {
		return err
	}

	query := `
	INSERT INTO knowledge_packs (id, owner_id, name, fragments_json, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, pack.ID, pack.OwnerID, pack.Name, fragments, pack.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert knowledge pack: %w", err)
	}
	return nil
}

// GetPack retrieves a knowledge pack by ID.
func (s *SQLiteStorage) GetPack(ctx context.Context, id string) (*core.KnowledgePack, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, owner_id, name, fragments_json, created_at
	FROM knowledge_packs WHERE id = ?`, id)
	pack, err := scanPack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge pack: %w", err)
	}
	return pack, nil
}

// ListPacks returns knowledge packs newest first, optionally filtered by owner.
func (s *SQLiteStorage) ListPacks(ctx context.Context, ownerID string) ([]*core.KnowledgePack, error) {
	query := `SELECT id, owner_id, name, fragments_json, created_at FROM knowledge_packs`
	args := []any{}
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge packs: %w", err)
	}
	defer rows.Close()

	var packs []*core.KnowledgePack
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge pack: %w", err)
		}
		packs = append(packs, pack)
	}
	return packs, rows.Err()
}

func scanPack(row rowScanner) (*core.KnowledgePack, error) {
	var p core.KnowledgePack
	var fragments string
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &fragments, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(fragments, &p.Fragments, "fragments"); err != nil {
		return nil, err
	}
	return &p, nil
}
