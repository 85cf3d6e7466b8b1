package validation

import (
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// ValidatePatternUnlocks checks that every node the affinity registry unlocks
// for characterID exists in graph, and that every pattern it names is real.
func ValidatePatternUnlocks(characterID string, graph *dialogue.DialogueGraph, reg *registry.PatternAffinityRegistry) []PatternUnlockIssue {
	affinity, ok := reg.For(characterID)
	if !ok {
		return nil
	}

	var issues []PatternUnlockIssue
	checkPattern := func(p state.PatternType, field string) {
		if p == "" || state.IsValidPattern(p) {
			return
		}
		issues = append(issues, PatternUnlockIssue{
			Type:        IssueUnknownPattern,
			Severity:    SeverityError,
			CharacterID: characterID,
			Pattern:     p,
			Message:     fmt.Sprintf("%s %q is not a pattern dimension", field, p),
		})
	}

	if affinity.PrimaryPattern == "" {
		issues = append(issues, PatternUnlockIssue{
			Type:        IssueUnknownPattern,
			Severity:    SeverityError,
			CharacterID: characterID,
			Message:     "primary_pattern is empty",
		})
	}
	checkPattern(affinity.PrimaryPattern, "primary_pattern")
	checkPattern(affinity.SecondaryPattern, "secondary_pattern")

	for _, u := range affinity.Unlocks {
		if u.Pattern == "" {
			issues = append(issues, PatternUnlockIssue{
				Type:        IssueUnknownPattern,
				Severity:    SeverityError,
				CharacterID: characterID,
				Message:     "unlock has no pattern",
			})
		}
		checkPattern(u.Pattern, "unlock pattern")

		for _, nodeID := range u.NodeIDs {
			if _, ok := graph.Node(nodeID); ok {
				continue
			}
			issues = append(issues, PatternUnlockIssue{
				Type:        IssueMissingNode,
				Severity:    SeverityError,
				CharacterID: characterID,
				Pattern:     u.Pattern,
				NodeID:      nodeID,
				Message:     fmt.Sprintf("%s unlock at %d targets missing node %q", u.Pattern, u.Threshold, nodeID),
			})
		}
	}
	return issues
}
