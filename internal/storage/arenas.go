package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
)

const arenaColumns = `id, code, topic, creator_id, joiner_id, game_type, status,
	creator_ready, joiner_ready, creator_side, joiner_side, pros_agent_id, cons_agent_id,
	writing_minutes, creator_authoring_json, joiner_authoring_json, match_id,
	cancel_reason, last_error, version, created_at, updated_at`

// CreateArena inserts a new arena.
func (s *SQLiteStorage) CreateArena(ctx context.Context, arena *core.Arena) error {
	creatorAuth, err := marshalColumn(arena.CreatorAuthoring, "creator authoring")
	if err != nil {
		return err
	}
	joinerAuth, err := marshalColumn(arena.JoinerAuthoring, "joiner authoring")
	if err != nil {
		return err
	}

	query := `INSERT INTO arenas (` + arenaColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		arena.ID,
		arena.Code,
		arena.Topic,
		arena.CreatorID,
		arena.JoinerID,
		arena.GameType,
		arena.Status,
		arena.CreatorReady,
		arena.JoinerReady,
		arena.CreatorSide,
		arena.JoinerSide,
		arena.ProsAgentID,
		arena.ConsAgentID,
		arena.WritingMinutes,
		creatorAuth,
		joinerAuth,
		arena.MatchID,
		arena.CancelReason,
		arena.LastError,
		arena.Version,
		arena.CreatedAt,
		arena.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert arena: %w", err)
	}
	return nil
}

// GetArena retrieves an arena by ID.
func (s *SQLiteStorage) GetArena(ctx context.Context, id string) (*core.Arena, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+arenaColumns+` FROM arenas WHERE id = ?`, id)
	arena, err := scanArena(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get arena: %w", err)
	}
	return arena, nil
}

// GetArenaByCode retrieves an arena by its join code.
func (s *SQLiteStorage) GetArenaByCode(ctx context.Context, code string) (*core.Arena, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+arenaColumns+` FROM arenas WHERE code = ?`, code)
	arena, err := scanArena(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get arena by code: %w", err)
	}
	return arena, nil
}

// ListArenas returns arenas newest first. A non-empty participantID limits
// the result to arenas where that user is creator or joiner.
func (s *SQLiteStorage) ListArenas(ctx context.Context, participantID string, limit, offset int) ([]*core.Arena, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + arenaColumns + ` FROM arenas`
	args := []any{}
	if participantID != "" {
		query += ` WHERE creator_id = ? OR joiner_id = ?`
		args = append(args, participantID, participantID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return s.queryArenas(ctx, query, args...)
}

// ListArenasByStatus returns every arena in the given status.
func (s *SQLiteStorage) ListArenasByStatus(ctx context.Context, status core.ArenaStatus) ([]*core.Arena, error) {
	return s.queryArenas(ctx, `SELECT `+arenaColumns+` FROM arenas WHERE status = ? ORDER BY created_at ASC`, status)
}

func (s *SQLiteStorage) queryArenas(ctx context.Context, query string, args ...any) ([]*core.Arena, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list arenas: %w", err)
	}
	defer rows.Close()

	var arenas []*core.Arena
	for rows.Next() {
		arena, err := scanArena(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan arena: %w", err)
		}
		arenas = append(arenas, arena)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate arenas: %w", err)
	}
	return arenas, nil
}

// UpdateArena applies a partial update inside a transaction.
func (s *SQLiteStorage) UpdateArena(ctx context.Context, id string, patch core.ArenaPatch) (*core.Arena, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanArena(tx.QueryRowContext(ctx, `SELECT `+arenaColumns+` FROM arenas WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load arena: %w", err)
	}

	updated := patch.Apply(*current)
	updated.Version = current.Version + 1
	updated.UpdatedAt = time.Now()

	creatorAuth, err := marshalColumn(updated.CreatorAuthoring, "creator authoring")
	if err != nil {
		return nil, err
	}
	joinerAuth, err := marshalColumn(updated.JoinerAuthoring, "joiner authoring")
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE arenas
	SET joiner_id = ?, status = ?, creator_ready = ?, joiner_ready = ?, creator_side = ?, joiner_side = ?,
		pros_agent_id = ?, cons_agent_id = ?, creator_authoring_json = ?, joiner_authoring_json = ?,
		match_id = ?, cancel_reason = ?, last_error = ?, version = ?, updated_at = ?
	WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, query,
		updated.JoinerID,
		updated.Status,
		updated.CreatorReady,
		updated.JoinerReady,
		updated.CreatorSide,
		updated.JoinerSide,
		updated.ProsAgentID,
		updated.ConsAgentID,
		creatorAuth,
		joinerAuth,
		updated.MatchID,
		updated.CancelReason,
		updated.LastError,
		updated.Version,
		updated.UpdatedAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update arena: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit arena update: %w", err)
	}
	return &updated, nil
}

// DeleteArena deletes an arena.
func (s *SQLiteStorage) DeleteArena(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM arenas WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete arena: %w", err)
	}
	return nil
}

func scanArena(row rowScanner) (*core.Arena, error) {
	var a core.Arena
	var creatorAuth, joinerAuth string
	err := row.Scan(
		&a.ID,
		&a.Code,
		&a.Topic,
		&a.CreatorID,
		&a.JoinerID,
		&a.GameType,
		&a.Status,
		&a.CreatorReady,
		&a.JoinerReady,
		&a.CreatorSide,
		&a.JoinerSide,
		&a.ProsAgentID,
		&a.ConsAgentID,
		&a.WritingMinutes,
		&creatorAuth,
		&joinerAuth,
		&a.MatchID,
		&a.CancelReason,
		&a.LastError,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalColumn(creatorAuth, &a.CreatorAuthoring, "creator authoring"); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(joinerAuth, &a.JoinerAuthoring, "joiner authoring"); err != nil {
		return nil, err
	}
	return &a, nil
}
