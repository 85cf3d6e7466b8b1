package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// MockStorage is an in-memory Storage for tests and local runs without Redis.
// It stores clones so callers cannot mutate persisted state in place.
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	turns      map[uuid.UUID][]TurnRecord
	pingError  error
	commitErr  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		turns:      make(map[uuid.UUID][]TurnRecord),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetCommitError makes every CommitGameState fail with err, writing nothing.
func (m *MockStorage) SetCommitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a gamestate
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gamestate *state.GameState) error {
	if gamestate == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamestates[id] = gamestate.Clone()
	return nil
}

// LoadGameState mocks loading a gamestate
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gamestate, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return gamestate.Clone(), nil
}

// DeleteGameState mocks deleting a gamestate and its turn log
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	delete(m.turns, id)
	return nil
}

// CommitGameState applies the same version check as the Redis implementation.
func (m *MockStorage) CommitGameState(ctx context.Context, gs *state.GameState, turn TurnRecord) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return m.commitErr
	}
	current, ok := m.gamestates[gs.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, gs.ID)
	}
	if current.Version != gs.Version-1 {
		return fmt.Errorf("%w: stored version %d, committing %d", ErrConflict, current.Version, gs.Version)
	}
	m.gamestates[gs.ID] = gs.Clone()
	m.turns[gs.ID] = append(m.turns[gs.ID], turn)
	return nil
}

// ListTurns mocks reading the turn log
func (m *MockStorage) ListTurns(ctx context.Context, id uuid.UUID, limit int) ([]TurnRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.turns[id]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append(make([]TurnRecord, 0, len(turns)), turns...), nil
}
