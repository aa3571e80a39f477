package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alienxp03/debatearena/internal/core"
)

// CreateMatch inserts a finished match in one statement.
func (s *SQLiteStorage) CreateMatch(ctx context.Context, match *core.Match) error {
	transcript, err := marshalColumn(match.Transcript, "transcript")
	if err != nil {
		return err
	}
	verdicts, err := marshalColumn(match.JudgeVerdicts, "judge verdicts")
	if err != nil {
		return err
	}

	query := `
	INSERT INTO matches (id, topic, agent_a_id, agent_b_id, transcript_json, verdicts_json,
		score_a, score_b, winner_agent_id, conclusion_text, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		match.ID,
		match.Topic,
		match.AgentAID,
		match.AgentBID,
		transcript,
		verdicts,
		match.ScoreA,
		match.ScoreB,
		match.WinnerAgentID,
		match.ConclusionText,
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// GetMatch retrieves a match by ID.
func (s *SQLiteStorage) GetMatch(ctx context.Context, id string) (*core.Match, error) {
	query := `
	SELECT id, topic, agent_a_id, agent_b_id, transcript_json, verdicts_json,
		score_a, score_b, winner_agent_id, conclusion_text, created_at
	FROM matches WHERE id = ?
	`

	var m core.Match
	var transcript, verdicts string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Topic,
		&m.AgentAID,
		&m.AgentBID,
		&transcript,
		&verdicts,
		&m.ScoreA,
		&m.ScoreB,
		&m.WinnerAgentID,
		&m.ConclusionText,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if err := unmarshalColumn(transcript, &m.Transcript, "transcript"); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(verdicts, &m.JudgeVerdicts, "judge verdicts"); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMatches returns match summaries newest first.
func (s *SQLiteStorage) ListMatches(ctx context.Context, limit, offset int) ([]*core.MatchSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, topic, agent_a_id, agent_b_id, score_a, score_b, winner_agent_id, created_at
	FROM matches
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var summaries []*core.MatchSummary
	for rows.Next() {
		var m core.MatchSummary
		err := rows.Scan(&m.ID, &m.Topic, &m.AgentAID, &m.AgentBID, &m.ScoreA, &m.ScoreB, &m.WinnerAgentID, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match summary: %w", err)
		}
		summaries = append(summaries, &m)
	}
	return summaries, rows.Err()
}

// GetRating returns the rating of an owner, or core.DefaultRating.
func (s *SQLiteStorage) GetRating(ctx context.Context, ownerID string) (float64, error) {
	var rating float64
	err := s.db.QueryRowContext(ctx, `SELECT rating FROM ratings WHERE owner_id = ?`, ownerID).Scan(&rating)
	if err == sql.ErrNoRows {
		return core.DefaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

// SetRatings upserts several ratings in one transaction.
func (s *SQLiteStorage) SetRatings(ctx context.Context, ratings map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
	INSERT INTO ratings (owner_id, rating, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(owner_id) DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at
	`
	for owner, rating := range ratings {
		if _, err := tx.ExecContext(ctx, query, owner, rating, now); err != nil {
			return fmt.Errorf("failed to set rating for %s: %w", owner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ratings: %w", err)
	}
	return nil
}

// ListRatings returns ratings highest first.
func (s *SQLiteStorage) ListRatings(ctx context.Context, limit int) ([]*core.Rating, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT owner_id, rating, updated_at FROM ratings
	ORDER BY rating DESC, owner_id ASC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*core.Rating
	for rows.Next() {
		var r core.Rating
		if err := rows.Scan(&r.OwnerID, &r.Rating, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &r)
	}
	return ratings, rows.Err()
}
