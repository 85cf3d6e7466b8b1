package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	MinTrust = -10
	MaxTrust = 10
)

// Relationship status labels derived from trust.
const (
	RelationshipHostile      = "hostile"
	RelationshipStranger     = "stranger"
	RelationshipAcquaintance = "acquaintance"
	RelationshipFriend       = "friend"
	RelationshipConfidant    = "confidant"
)

// RelationshipForTrust maps a trust score to its relationship label.
func RelationshipForTrust(trust int) string {
	switch {
	case trust <= -3:
		return RelationshipHostile
	case trust < 2:
		return RelationshipStranger
	case trust < 5:
		return RelationshipAcquaintance
	case trust < 8:
		return RelationshipFriend
	default:
		return RelationshipConfidant
	}
}

func clampTrust(trust int) int {
	return min(max(trust, MinTrust), MaxTrust)
}

// CharacterState is the player's relationship with a single character.
type CharacterState struct {
	CharacterID         string    `json:"character_id"`
	Trust               int       `json:"trust"`
	RelationshipStatus  string    `json:"relationship_status"`
	KnowledgeFlags      FlagSet   `json:"knowledge_flags"`
	EncounterCount      int       `json:"encounter_count"`
	ConversationHistory []string  `json:"conversation_history"`
	LastInteraction     time.Time `json:"last_interaction,omitzero"`
}

// NewCharacterState creates the state for a first encounter.
func NewCharacterState(characterID string) *CharacterState {
	return &CharacterState{
		CharacterID:         characterID,
		Trust:               0,
		RelationshipStatus:  RelationshipForTrust(0),
		KnowledgeFlags:      make(FlagSet),
		ConversationHistory: make([]string, 0),
	}
}

// Clone returns a deep copy.
func (cs *CharacterState) Clone() *CharacterState {
	if cs == nil {
		return nil
	}
	out := *cs
	out.KnowledgeFlags = cs.KnowledgeFlags.Clone()
	out.ConversationHistory = append(make([]string, 0, len(cs.ConversationHistory)), cs.ConversationHistory...)
	return &out
}

func (cs *CharacterState) normalize(id string) {
	if cs.CharacterID == "" {
		cs.CharacterID = id
	}
	cs.Trust = clampTrust(cs.Trust)
	if cs.RelationshipStatus == "" {
		cs.RelationshipStatus = RelationshipForTrust(cs.Trust)
	}
	if cs.KnowledgeFlags == nil {
		cs.KnowledgeFlags = make(FlagSet)
	}
	if cs.ConversationHistory == nil {
		cs.ConversationHistory = make([]string, 0)
	}
	if cs.EncounterCount < 0 {
		cs.EncounterCount = 0
	}
}

// CharacterMap indexes character state by character id.
// Snapshots store it as a list ordered by character id.
type CharacterMap map[string]*CharacterState

func (m CharacterMap) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]*CharacterState, 0, len(ids))
	for _, id := range ids {
		if m[id] != nil {
			list = append(list, m[id])
		}
	}
	return json.Marshal(list)
}

// UnmarshalJSON accepts either a list of character states or a map keyed by id.
func (m *CharacterMap) UnmarshalJSON(data []byte) error {
	var asList []*CharacterState
	if err := json.Unmarshal(data, &asList); err == nil {
		result := make(CharacterMap, len(asList))
		for _, cs := range asList {
			if cs == nil || cs.CharacterID == "" {
				continue
			}
			result[cs.CharacterID] = cs
		}
		*m = result
		return nil
	}
	var asMap map[string]*CharacterState
	if err := json.Unmarshal(data, &asMap); err == nil {
		result := make(CharacterMap, len(asMap))
		for id, cs := range asMap {
			if cs != nil {
				result[id] = cs
			}
		}
		*m = result
		return nil
	}
	return fmt.Errorf("characters: not a list or map: %s", string(data))
}
