package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rs, err := NewRedisStorage("redis://"+mr.Addr(), time.Hour, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}

	t.Cleanup(func() {
		rs.Close()
		mr.Close()
	})
	return rs, mr
}

func TestRedisStorage_SaveLoadDelete(t *testing.T) {
	rs, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	gs := state.NewGameState("player-1")
	gs.EnsureCharacter("samuel").Trust = 4
	gs.CurrentNodeID = "samuel_intro"

	if err := rs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}
	if !mr.Exists("gamestate:" + gs.ID.String()) {
		t.Fatal("Expected gamestate key to exist")
	}
	if ttl := mr.TTL("gamestate:" + gs.ID.String()); ttl != time.Hour {
		t.Errorf("Expected TTL of 1h, got %v", ttl)
	}

	loaded, err := rs.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Failed to load gamestate: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil gamestate")
	}
	cs, ok := loaded.GetCharacter("samuel")
	if !ok || cs.Trust != 4 {
		t.Errorf("Expected samuel at trust 4, got %+v", cs)
	}
	if loaded.CurrentNodeID != "samuel_intro" {
		t.Errorf("Expected current node samuel_intro, got %s", loaded.CurrentNodeID)
	}

	if err := rs.DeleteGameState(ctx, gs.ID); err != nil {
		t.Fatalf("Failed to delete gamestate: %v", err)
	}
	loaded, err = rs.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Expected no error for deleted gamestate, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil gamestate after delete")
	}
}

func TestRedisStorage_LoadNonExistent(t *testing.T) {
	rs, _ := setupTestRedis(t)

	loaded, err := rs.LoadGameState(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for non-existent gamestate, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for non-existent gamestate")
	}
}

func TestRedisStorage_LoadDefaultsLegacySnapshot(t *testing.T) {
	rs, mr := setupTestRedis(t)
	id := uuid.New()
	if err := mr.Set("gamestate:"+id.String(), `{"id":"`+id.String()+`","player_id":"p","patterns":{"helping":-2}}`); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	loaded, err := rs.LoadGameState(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load gamestate: %v", err)
	}
	if loaded.Characters == nil || loaded.GlobalFlags == nil || loaded.SkillLevels == nil {
		t.Error("Expected missing collections to be defaulted")
	}
	if loaded.Patterns.Helping != 0 {
		t.Errorf("Expected negative pattern to clamp to 0, got %d", loaded.Patterns.Helping)
	}
}

func TestRedisStorage_CommitGameState(t *testing.T) {
	rs, mr := setupTestRedis(t)
	ctx := context.Background()

	gs := state.NewGameState("player-1")
	if err := rs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}

	next := gs.Clone()
	next.Version = 1
	next.CurrentNodeID = "samuel_station"
	turn := storage.TurnRecord{Version: 1, CharacterID: "samuel", FromNodeID: "samuel_intro", ChoiceID: "ask_station", ToNodeID: "samuel_station", Moved: true}

	if err := rs.CommitGameState(ctx, next, turn); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	loaded, _ := rs.LoadGameState(ctx, gs.ID)
	if loaded.Version != 1 || loaded.CurrentNodeID != "samuel_station" {
		t.Errorf("Expected committed state at version 1 on samuel_station, got version %d on %s", loaded.Version, loaded.CurrentNodeID)
	}

	turns, err := rs.ListTurns(ctx, gs.ID, 0)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 1 || turns[0].ChoiceID != "ask_station" {
		t.Errorf("Expected one ask_station turn, got %+v", turns)
	}
	if ttl := mr.TTL("turns:" + gs.ID.String()); ttl != time.Hour {
		t.Errorf("Expected turn log TTL of 1h, got %v", ttl)
	}

	t.Run("stale version is rejected without writing", func(t *testing.T) {
		stale := gs.Clone()
		stale.Version = 1
		stale.CurrentNodeID = "somewhere_else"
		err := rs.CommitGameState(ctx, stale, storage.TurnRecord{Version: 1})
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict, got %v", err)
		}
		loaded, _ := rs.LoadGameState(ctx, gs.ID)
		if loaded.CurrentNodeID != "samuel_station" {
			t.Errorf("Stale commit overwrote state: %s", loaded.CurrentNodeID)
		}
		turns, _ := rs.ListTurns(ctx, gs.ID, 0)
		if len(turns) != 1 {
			t.Errorf("Stale commit appended a turn: %d turns", len(turns))
		}
	})

	t.Run("missing game", func(t *testing.T) {
		ghost := state.NewGameState("ghost")
		ghost.Version = 1
		err := rs.CommitGameState(ctx, ghost, storage.TurnRecord{})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestRedisStorage_ListTurnsLimit(t *testing.T) {
	rs, _ := setupTestRedis(t)
	ctx := context.Background()

	gs := state.NewGameState("p")
	if err := rs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}
	for i := 1; i <= 5; i++ {
		next := gs.Clone()
		next.Version = int64(i)
		if err := rs.CommitGameState(ctx, next, storage.TurnRecord{Version: int64(i)}); err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
		gs = next
	}

	turns, err := rs.ListTurns(ctx, gs.ID, 2)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 || turns[0].Version != 4 || turns[1].Version != 5 {
		t.Errorf("Expected the last two turns oldest first, got %+v", turns)
	}
}

func TestNewRedisStorage_BareAddress(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rs, err := NewRedisStorage(mr.Addr(), 0, logger)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer rs.Close()

	if err := rs.WaitForConnection(context.Background()); err != nil {
		t.Fatalf("WaitForConnection failed: %v", err)
	}
	if rs.ttl != defaultTTL {
		t.Errorf("Expected default TTL, got %v", rs.ttl)
	}
}
