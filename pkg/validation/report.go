package validation

import (
	"sort"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
)

// Report collects every check over a full content set.
type Report struct {
	Valid               bool                 `json:"valid"`
	Graphs              map[string]Result    `json:"graphs"`
	PatternUnlockIssues []PatternUnlockIssue `json:"pattern_unlock_issues,omitempty"`
	AlignmentIssues     []AlignmentIssue     `json:"alignment_issues,omitempty"`
}

// ValidateAll validates each graph (keyed by character id), the pattern
// unlocks declared for it, and the alignment of the two simulation registries.
func ValidateAll(graphs map[string]*dialogue.DialogueGraph, affinity *registry.PatternAffinityRegistry, content *registry.ContentRegistry, engine *registry.EngineRegistry) Report {
	r := Report{Graphs: make(map[string]Result, len(graphs))}

	ids := make([]string, 0, len(graphs))
	for id := range graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	valid := true
	for _, characterID := range ids {
		res := ValidateDialogueGraph(graphs[characterID], characterID)
		r.Graphs[characterID] = res
		valid = valid && res.Valid
		r.PatternUnlockIssues = append(r.PatternUnlockIssues, ValidatePatternUnlocks(characterID, graphs[characterID], affinity)...)
	}
	for _, characterID := range affinity.CharacterIDs() {
		if _, ok := graphs[characterID]; !ok {
			r.PatternUnlockIssues = append(r.PatternUnlockIssues, PatternUnlockIssue{
				Type:        IssueUnknownCharacter,
				Severity:    SeverityError,
				CharacterID: characterID,
				Message:     "pattern affinity declared for a character with no dialogue graph",
			})
		}
	}
	r.AlignmentIssues = ValidateRegistryAlignment(content, engine, graphs)

	r.Valid = valid && !HasErrors(r.PatternUnlockIssues) && !HasErrors(r.AlignmentIssues)
	return r
}
