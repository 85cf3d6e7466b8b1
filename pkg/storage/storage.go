package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

var (
	// ErrConflict is returned by CommitGameState when the stored state has
	// moved on since the caller loaded it.
	ErrConflict = errors.New("gamestate was modified concurrently")

	// ErrNotFound is returned by CommitGameState when there is no stored state to commit over.
	ErrNotFound = errors.New("gamestate not found")
)

// TurnRecord is one entry in a game's turn log.
type TurnRecord struct {
	Version      int64     `json:"version"`
	CharacterID  string    `json:"character_id"`
	FromNodeID   string    `json:"from_node_id"`
	ChoiceID     string    `json:"choice_id"`
	ToNodeID     string    `json:"to_node_id"`
	Moved        bool      `json:"moved"`
	TierUnlocked string    `json:"tier_unlocked,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Storage defines the persistence boundary for game state.
// Dialogue content is read-only and loaded separately (see pkg/content).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations. LoadGameState returns nil, nil when not found.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// CommitGameState atomically replaces the stored state with gs and appends
	// turn to the game's turn log. The stored version must equal gs.Version-1,
	// otherwise nothing is written and ErrConflict is returned.
	CommitGameState(ctx context.Context, gs *state.GameState, turn TurnRecord) error

	// ListTurns returns up to limit of the most recent turns, oldest first.
	// A limit <= 0 returns the whole log.
	ListTurns(ctx context.Context, id uuid.UUID, limit int) ([]TurnRecord, error)
}
