// Package storage provides persistence for arenas, agents and matches.
package storage

import (
	"context"

	"github.com/alienxp03/debatearena/internal/core"
)

// Storage defines the interface for arena persistence.
//
// Getters return (nil, nil) when the record does not exist.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize(ctx context.Context) error

	// Close closes the storage connection.
	Close() error

	// Arena operations
	CreateArena(ctx context.Context, arena *core.Arena) error
	GetArena(ctx context.Context, id string) (*core.Arena, error)
	GetArenaByCode(ctx context.Context, code string) (*core.Arena, error)
	ListArenas(ctx context.Context, participantID string, limit, offset int) ([]*core.Arena, error)
	ListArenasByStatus(ctx context.Context, status core.ArenaStatus) ([]*core.Arena, error)
	// UpdateArena applies patch, bumps the version and returns the stored
	// record. It returns (nil, nil) if the arena does not exist.
	UpdateArena(ctx context.Context, id string, patch core.ArenaPatch) (*core.Arena, error)
	DeleteArena(ctx context.Context, id string) error

	// Agent and knowledge pack operations
	CreateAgent(ctx context.Context, agent *core.Agent) error
	GetAgent(ctx context.Context, id string) (*core.Agent, error)
	ListAgents(ctx context.Context, ownerID string) ([]*core.Agent, error)
	CreatePack(ctx context.Context, pack *core.KnowledgePack) error
	GetPack(ctx context.Context, id string) (*core.KnowledgePack, error)
	ListPacks(ctx context.Context, ownerID string) ([]*core.KnowledgePack, error)

	// Match operations
	CreateMatch(ctx context.Context, match *core.Match) error
	GetMatch(ctx context.Context, id string) (*core.Match, error)
	ListMatches(ctx context.Context, limit, offset int) ([]*core.MatchSummary, error)

	// Rating operations. GetRating returns core.DefaultRating for unknown owners.
	GetRating(ctx context.Context, ownerID string) (float64, error)
	SetRatings(ctx context.Context, ratings map[string]float64) error
	ListRatings(ctx context.Context, limit int) ([]*core.Rating, error)
}
