// Package registry holds metadata maintained alongside, but separately from,
// the dialogue graphs: pattern-affinity unlocks and the two simulation registries.
package registry

import (
	"sort"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// PatternAffinityRegistry declares, per character, which nodes pattern growth reveals.
type PatternAffinityRegistry struct {
	Characters map[string]CharacterAffinity `json:"characters" yaml:"characters"`
}

// CharacterAffinity is one character's pattern affinities.
type CharacterAffinity struct {
	PrimaryPattern   state.PatternType `json:"primary_pattern" yaml:"primary_pattern"`
	SecondaryPattern state.PatternType `json:"secondary_pattern,omitempty" yaml:"secondary_pattern,omitempty"`
	Unlocks          []PatternUnlock   `json:"unlocks,omitempty" yaml:"unlocks,omitempty"`
}

// PatternUnlock reveals nodes once a pattern reaches a threshold.
type PatternUnlock struct {
	Pattern     state.PatternType `json:"pattern" yaml:"pattern"`
	Threshold   int               `json:"threshold" yaml:"threshold"`
	NodeIDs     []string          `json:"node_ids" yaml:"node_ids"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
}

// UnlockFlagPrefix prefixes the knowledge flag set when a pattern unlock reveals a node.
const UnlockFlagPrefix = "unlocked_"

// UnlockFlag is the knowledge flag that marks nodeID as revealed.
func UnlockFlag(nodeID string) string {
	return UnlockFlagPrefix + nodeID
}

// For returns the affinity for a character.
func (r *PatternAffinityRegistry) For(characterID string) (CharacterAffinity, bool) {
	if r == nil || r.Characters == nil {
		return CharacterAffinity{}, false
	}
	a, ok := r.Characters[characterID]
	return a, ok
}

// CharacterIDs returns the registered characters in lexical order.
func (r *PatternAffinityRegistry) CharacterIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Characters))
	for id := range r.Characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnlockedNodes returns the node ids revealed by the given patterns, in
// declaration order without duplicates.
func (a CharacterAffinity) UnlockedNodes(p state.PlayerPatterns) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range a.Unlocks {
		v, ok := p.Get(u.Pattern)
		if !ok || v < u.Threshold {
			continue
		}
		for _, id := range u.NodeIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
