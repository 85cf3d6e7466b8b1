package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func gamestateKey(id uuid.UUID) string {
	return gamestatePrefix + id.String()
}

func turnsKey(id uuid.UUID) string {
	return turnsPrefix + id.String()
}

// GameState operations

func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	if err := r.client.Set(ctx, gamestateKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := getGameState(ctx, r.client, id)
	if err != nil {
		r.logger.Error("Failed to load gamestate", "uuid", id, "error", err)
		return nil, err
	}
	if gs == nil {
		r.logger.Warn("Gamestate not found", "uuid", id)
	}
	return gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, gamestateKey(id), turnsKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// CommitGameState writes gs and appends turn in one MULTI/EXEC, guarded by
// WATCH on the gamestate key and a version check.
func (r *RedisStorage) CommitGameState(ctx context.Context, gs *state.GameState, turn storage.TurnRecord) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	turnData, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}

	key, tkey := gamestateKey(gs.ID), turnsKey(gs.ID)
	txf := func(tx *redis.Tx) error {
		current, err := getGameState(ctx, tx, gs.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, gs.ID)
		}
		if current.Version != gs.Version-1 {
			return fmt.Errorf("%w: stored version %d, committing %d", storage.ErrConflict, current.Version, gs.Version)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.RPush(ctx, tkey, turnData)
			pipe.Expire(ctx, tkey, r.ttl)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		r.logger.Debug("Committed gamestate", "uuid", gs.ID, "version", gs.Version)
		return nil
	case errors.Is(err, redis.TxFailedErr):
		r.logger.Warn("Gamestate commit lost a race", "uuid", gs.ID, "version", gs.Version)
		return fmt.Errorf("%w: %s", storage.ErrConflict, gs.ID)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, storage.ErrNotFound):
		r.logger.Warn("Gamestate commit rejected", "uuid", gs.ID, "error", err)
		return err
	default:
		r.logger.Error("Failed to commit gamestate", "uuid", gs.ID, "error", err)
		return fmt.Errorf("failed to commit gamestate: %w", err)
	}
}

func (r *RedisStorage) ListTurns(ctx context.Context, id uuid.UUID, limit int) ([]storage.TurnRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := r.client.LRange(ctx, turnsKey(id), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read turn log: %w", err)
	}

	turns := make([]storage.TurnRecord, 0, len(raw))
	for _, item := range raw {
		var t storage.TurnRecord
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			r.logger.Warn("Skipping unreadable turn record", "uuid", id, "error", err)
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getGameState reads a snapshot from the client or from inside a WATCH
// transaction. Not found is nil, nil.
func getGameState(ctx context.Context, c getter, id uuid.UUID) (*state.GameState, error) {
	data, err := c.Get(ctx, gamestateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}
