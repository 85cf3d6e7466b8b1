package conditionals

import (
	"slices"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Range is an inclusive integer range. A nil bound is open.
type Range struct {
	Min *int `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// StateCondition gates a choice or node on player state.
// All present clauses must hold; an absent clause imposes no constraint.
type StateCondition struct {
	Trust               *Range                      `json:"trust,omitempty" yaml:"trust,omitempty"`                                 // Trust with the character
	RelationshipStatus  []string                    `json:"relationship_status,omitempty" yaml:"relationship_status,omitempty"`     // Status must be one of these
	HasGlobalFlags      []string                    `json:"has_global_flags,omitempty" yaml:"has_global_flags,omitempty"`           // All must be set
	LacksGlobalFlags    []string                    `json:"lacks_global_flags,omitempty" yaml:"lacks_global_flags,omitempty"`       // None may be set
	HasKnowledgeFlags   []string                    `json:"has_knowledge_flags,omitempty" yaml:"has_knowledge_flags,omitempty"`     // Character must hold all
	LacksKnowledgeFlags []string                    `json:"lacks_knowledge_flags,omitempty" yaml:"lacks_knowledge_flags,omitempty"` // Character may hold none
	Patterns            map[state.PatternType]Range `json:"patterns,omitempty" yaml:"patterns,omitempty"`                           // Per-dimension ranges
}

// IsEmpty reports whether the condition has no clauses.
func (c *StateCondition) IsEmpty() bool {
	return c == nil || (c.Trust == nil &&
		len(c.RelationshipStatus) == 0 &&
		len(c.HasGlobalFlags) == 0 &&
		len(c.LacksGlobalFlags) == 0 &&
		len(c.HasKnowledgeFlags) == 0 &&
		len(c.LacksKnowledgeFlags) == 0 &&
		len(c.Patterns) == 0)
}

// hasCharacterClauses reports whether any clause needs a character to evaluate.
func (c *StateCondition) hasCharacterClauses() bool {
	return c.Trust != nil ||
		len(c.RelationshipStatus) > 0 ||
		len(c.HasKnowledgeFlags) > 0 ||
		len(c.LacksKnowledgeFlags) > 0
}

// StateView provides the minimal interface needed to evaluate conditions.
// *state.GameState satisfies it.
type StateView interface {
	GetCharacter(characterID string) (*state.CharacterState, bool)
	HasGlobalFlag(flag string) bool
	GetPatterns() state.PlayerPatterns
}

// Evaluate checks if all clauses in a StateCondition hold for the given state.
// characterID names the character whose trust, relationship and knowledge
// clauses are checked. An empty characterID (speaker could not be resolved)
// skips those clauses. A named character missing from state fails them.
func Evaluate(cond *StateCondition, view StateView, characterID string) bool {
	if cond.IsEmpty() {
		return true
	}
	if view == nil {
		return false
	}

	if characterID != "" && cond.hasCharacterClauses() {
		cs, ok := view.GetCharacter(characterID)
		if !ok {
			return false
		}

		// Check trust range
		if cond.Trust != nil && !cond.Trust.Contains(cs.Trust) {
			return false
		}

		// Check relationship membership
		if len(cond.RelationshipStatus) > 0 && !slices.Contains(cond.RelationshipStatus, cs.RelationshipStatus) {
			return false
		}

		// Check knowledge flags
		if !cs.KnowledgeFlags.HasAll(cond.HasKnowledgeFlags) {
			return false
		}
		if cs.KnowledgeFlags.HasAny(cond.LacksKnowledgeFlags) {
			return false
		}
	}

	// Check global flags
	for _, f := range cond.HasGlobalFlags {
		if !view.HasGlobalFlag(f) {
			return false
		}
	}
	for _, f := range cond.LacksGlobalFlags {
		if view.HasGlobalFlag(f) {
			return false
		}
	}

	// Check pattern ranges
	if len(cond.Patterns) > 0 {
		patterns := view.GetPatterns()
		for p, r := range cond.Patterns {
			v, ok := patterns.Get(p)
			if !ok || !r.Contains(v) {
				return false
			}
		}
	}

	// All conditions passed
	return true
}
