package state

// StateChange is the declared set of deltas a choice or node applies to player state.
// It is intentionally smaller and stricter than the full game state.
type StateChange struct {
	CharacterID          string              `json:"character_id,omitempty" yaml:"character_id,omitempty"` // Defaults to the character being spoken with
	TrustChange          int                 `json:"trust_change,omitempty" yaml:"trust_change,omitempty"`
	PatternChanges       map[PatternType]int `json:"pattern_changes,omitempty" yaml:"pattern_changes,omitempty"`
	AddGlobalFlags       []string            `json:"add_global_flags,omitempty" yaml:"add_global_flags,omitempty"`
	RemoveGlobalFlags    []string            `json:"remove_global_flags,omitempty" yaml:"remove_global_flags,omitempty"`
	AddKnowledgeFlags    []string            `json:"add_knowledge_flags,omitempty" yaml:"add_knowledge_flags,omitempty"`
	RemoveKnowledgeFlags []string            `json:"remove_knowledge_flags,omitempty" yaml:"remove_knowledge_flags,omitempty"`
	RelationshipStatus   string              `json:"relationship_status,omitempty" yaml:"relationship_status,omitempty"` // Overrides the trust-derived label
}

// IsEmpty checks if the StateChange declares no changes
func (sc *StateChange) IsEmpty() bool {
	return sc == nil || (sc.TrustChange == 0 &&
		len(sc.PatternChanges) == 0 &&
		len(sc.AddGlobalFlags) == 0 &&
		len(sc.RemoveGlobalFlags) == 0 &&
		len(sc.AddKnowledgeFlags) == 0 &&
		len(sc.RemoveKnowledgeFlags) == 0 &&
		sc.RelationshipStatus == "")
}
