// Package engine runs conversations: it evaluates choices against persisted
// state, applies the chosen choice's effects and commits the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/content"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

var (
	// ErrGameNotFound is returned when no game state exists for an id.
	ErrGameNotFound = errors.New("game not found")

	// ErrChoiceUnavailable is returned when the requested choice is missing,
	// hidden or disabled for the current state.
	ErrChoiceUnavailable = errors.New("choice not available")
)

// Engine is safe for concurrent use; all per-game state lives in storage.
type Engine struct {
	store  storage.Storage
	lib    *content.Library
	nav    *dialogue.Navigator
	logger *slog.Logger
	now    func() time.Time
}

// New creates an engine over a loaded content library.
func New(store storage.Storage, lib *content.Library, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		lib:    lib,
		nav:    dialogue.NewNavigator(lib.Speakers, logger),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CharacterSummary describes a character that can be talked to.
type CharacterSummary struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	StartNodeID string `json:"start_node_id"`
	NodeCount   int    `json:"node_count"`
}

// Characters lists every character with a dialogue graph.
func (e *Engine) Characters() []CharacterSummary {
	ids := e.lib.CharacterIDs()
	out := make([]CharacterSummary, 0, len(ids))
	for _, id := range ids {
		g := e.lib.Graphs[id]
		name := id
		if len(g.SpeakerNames) > 0 {
			name = g.SpeakerNames[0]
		}
		out = append(out, CharacterSummary{
			CharacterID: id,
			Name:        name,
			StartNodeID: g.StartNodeID,
			NodeCount:   len(g.Nodes),
		})
	}
	return out
}

// NewGame creates and saves a fresh game for playerID, opening a conversation with characterID.
func (e *Engine) NewGame(ctx context.Context, playerID, characterID string) (*Turn, error) {
	graph, err := e.lib.Graph(characterID)
	if err != nil {
		return nil, err
	}
	start, ok := graph.Node(graph.StartNodeID)
	if !ok {
		return nil, fmt.Errorf("graph %s has no start node %q", graph.GraphID, graph.StartNodeID)
	}

	gs := state.NewGameState(playerID)
	gs.Timestamp = e.now()
	dw := state.NewDeltaWorker(gs, e.logger).WithClock(e.now)
	e.openConversation(dw, gs, graph, start)
	resonance := e.resolveTier(dw, gs)
	e.grantPatternUnlocks(dw, gs)

	if err := e.store.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save new game: %w", err)
	}
	e.logger.Info("Game created",
		"game_id", gs.ID,
		"player_id", playerID,
		"character_id", characterID)

	return e.buildTurn(gs, graph, &resonance), nil
}

// Current returns the turn view for the game's current position.
func (e *Engine) Current(ctx context.Context, id uuid.UUID) (*Turn, error) {
	gs, graph, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.buildTurn(gs, graph, nil), nil
}

// State returns the raw game state.
func (e *Engine) State(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := e.store.LoadGameState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return gs, nil
}

// Delete removes a game and its turn log.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := e.State(ctx, id); err != nil {
		return err
	}
	return e.store.DeleteGameState(ctx, id)
}

// History returns the most recent turns of a game, oldest first.
func (e *Engine) History(ctx context.Context, id uuid.UUID, limit int) ([]storage.TurnRecord, error) {
	if _, err := e.State(ctx, id); err != nil {
		return nil, err
	}
	return e.store.ListTurns(ctx, id, limit)
}

func (e *Engine) load(ctx context.Context, id uuid.UUID) (*state.GameState, *dialogue.DialogueGraph, error) {
	gs, err := e.State(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	graph, err := e.lib.Graph(gs.CurrentCharacterID)
	if err != nil {
		return nil, nil, err
	}
	return gs, graph, nil
}

// Graph returns the dialogue graph for a character.
func (e *Engine) Graph(characterID string) (*dialogue.DialogueGraph, error) {
	return e.lib.Graph(characterID)
}
