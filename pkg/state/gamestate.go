package state

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

// GameState is the full player state for one playthrough.
// Evaluation code only reads it; mutation goes through DeltaWorker on a clone.
type GameState struct {
	ID                 uuid.UUID          `json:"id"`
	PlayerID           string             `json:"player_id"`
	Characters         CharacterMap       `json:"characters"`
	GlobalFlags        FlagSet            `json:"global_flags"`
	Patterns           PlayerPatterns     `json:"patterns"`
	CurrentNodeID      string             `json:"current_node_id"`
	CurrentCharacterID string             `json:"current_character_id"`
	SkillLevels        map[string]float64 `json:"skill_levels"`
	Timestamp          time.Time          `json:"timestamp"`
	Version            int64              `json:"version"` // Incremented on every committed turn
}

// NewGameState creates a fresh playthrough for a player.
func NewGameState(playerID string) *GameState {
	return &GameState{
		ID:          uuid.New(),
		PlayerID:    playerID,
		Characters:  make(CharacterMap),
		GlobalFlags: make(FlagSet),
		SkillLevels: make(map[string]float64),
		Timestamp:   time.Now(),
	}
}

// GetCharacter returns the state for a character without creating it.
func (gs *GameState) GetCharacter(characterID string) (*CharacterState, bool) {
	if gs == nil || gs.Characters == nil {
		return nil, false
	}
	cs, ok := gs.Characters[characterID]
	return cs, ok && cs != nil
}

// HasGlobalFlag reports whether a global flag is set.
func (gs *GameState) HasGlobalFlag(flag string) bool {
	if gs == nil {
		return false
	}
	return gs.GlobalFlags.Has(flag)
}

// GetPatterns returns the current pattern values.
func (gs *GameState) GetPatterns() PlayerPatterns {
	if gs == nil {
		return PlayerPatterns{}
	}
	return gs.Patterns
}

// GetSkillLevels returns the player's skill levels.
func (gs *GameState) GetSkillLevels() map[string]float64 {
	if gs == nil {
		return nil
	}
	return gs.SkillLevels
}

// EnsureCharacter returns the character state, creating it with trust 0 on first encounter.
func (gs *GameState) EnsureCharacter(characterID string) *CharacterState {
	if gs.Characters == nil {
		gs.Characters = make(CharacterMap)
	}
	cs, ok := gs.Characters[characterID]
	if !ok || cs == nil {
		cs = NewCharacterState(characterID)
		gs.Characters[characterID] = cs
	}
	return cs
}

// Clone returns a deep copy that shares no mutable data with gs.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Characters = make(CharacterMap, len(gs.Characters))
	for id, cs := range gs.Characters {
		out.Characters[id] = cs.Clone()
	}
	out.GlobalFlags = gs.GlobalFlags.Clone()
	out.SkillLevels = maps.Clone(gs.SkillLevels)
	if out.SkillLevels == nil {
		out.SkillLevels = make(map[string]float64)
	}
	return &out
}

// Normalize fills in defaults for any field missing from a loaded snapshot.
func (gs *GameState) Normalize() {
	if gs.Characters == nil {
		gs.Characters = make(CharacterMap)
	}
	for id, cs := range gs.Characters {
		if cs == nil {
			delete(gs.Characters, id)
			continue
		}
		cs.normalize(id)
	}
	if gs.GlobalFlags == nil {
		gs.GlobalFlags = make(FlagSet)
	}
	if gs.SkillLevels == nil {
		gs.SkillLevels = make(map[string]float64)
	}
	gs.Patterns = gs.Patterns.normalized()
	if gs.Version < 0 {
		gs.Version = 0
	}
}

// UnmarshalJSON decodes a snapshot and defaults every missing field.
func (gs *GameState) UnmarshalJSON(data []byte) error {
	type Alias GameState
	aux := &struct{ *Alias }{Alias: (*Alias)(gs)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	gs.Normalize()
	return nil
}
