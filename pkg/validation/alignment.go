package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
)

var snakeCaseID = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// isValidSimulationID reports whether id is "<characterID>_<slug>" in lowercase snake_case.
func isValidSimulationID(id, characterID string) bool {
	if !snakeCaseID.MatchString(id) {
		return false
	}
	slug, ok := strings.CutPrefix(id, characterID+"_")
	return ok && slug != ""
}

// ValidateRegistryAlignment compares the content and engine simulation
// registries character by character. graphs maps character id to that
// character's dialogue graph. Issues are grouped by character in lexical order.
func ValidateRegistryAlignment(content *registry.ContentRegistry, engine *registry.EngineRegistry, graphs map[string]*dialogue.DialogueGraph) []AlignmentIssue {
	contentBy := registry.GroupByCharacter(content.Metas())
	engineBy := registry.GroupByCharacter(engine.Metas())

	var issues []AlignmentIssue
	for _, characterID := range registry.Characters(contentBy, engineBy) {
		issues = append(issues, alignCharacter(characterID, contentBy[characterID], engineBy[characterID], graphs[characterID])...)
	}
	return issues
}

func alignCharacter(characterID string, content, engine []registry.SimulationMeta, graph *dialogue.DialogueGraph) []AlignmentIssue {
	var issues []AlignmentIssue
	add := func(t IssueType, simID, reg, msg string) {
		issues = append(issues, AlignmentIssue{
			Type:         t,
			Severity:     SeverityError,
			CharacterID:  characterID,
			SimulationID: simID,
			Registry:     reg,
			Message:      msg,
		})
	}

	if graph == nil {
		add(IssueUnknownCharacter, "", "", fmt.Sprintf("no dialogue graph for character %q", characterID))
	}

	index := func(reg string, metas []registry.SimulationMeta) map[string]registry.SimulationMeta {
		out := make(map[string]registry.SimulationMeta, len(metas))
		for _, m := range metas {
			if _, dup := out[m.SimulationID]; dup {
				add(IssueDuplicateID, m.SimulationID, reg, fmt.Sprintf("simulation %q is listed more than once", m.SimulationID))
				continue
			}
			out[m.SimulationID] = m

			if !isValidSimulationID(m.SimulationID, characterID) {
				add(IssueInvalidIDFormat, m.SimulationID, reg,
					fmt.Sprintf("simulation id %q must be %s_<slug> in lowercase snake_case", m.SimulationID, characterID))
			}
			if m.Phase <= 0 {
				add(IssueMissingPhase, m.SimulationID, reg, "phase is not set")
			}
			if strings.TrimSpace(m.Difficulty) == "" {
				add(IssueMissingDiff, m.SimulationID, reg, "difficulty is not set")
			}
			if graph != nil {
				if _, ok := graph.Node(m.EntryNodeID); !ok {
					add(IssueEntryNodeMissing, m.SimulationID, reg,
						fmt.Sprintf("entry node %q does not exist in graph %q", m.EntryNodeID, graph.GraphID))
				}
			}
		}
		return out
	}

	contentIdx := index(RegistryContent, content)
	engineIdx := index(RegistryEngine, engine)

	for _, id := range uniqueIDs(content) {
		e, ok := engineIdx[id]
		if !ok {
			add(IssueMissingInEngine, id, RegistryEngine,
				fmt.Sprintf("simulation %q is in the content registry but not the engine registry", id))
			continue
		}
		if diff := metaDiff(contentIdx[id], e); diff != "" {
			add(IssueMetadataMismatch, id, "", diff)
		}
	}
	for _, id := range uniqueIDs(engine) {
		if _, ok := contentIdx[id]; !ok {
			add(IssueMissingInContent, id, RegistryContent,
				fmt.Sprintf("simulation %q is in the engine registry but not the content registry", id))
		}
	}
	return issues
}

// uniqueIDs returns simulation ids in first-seen order.
func uniqueIDs(metas []registry.SimulationMeta) []string {
	seen := make(map[string]bool, len(metas))
	var ids []string
	for _, m := range metas {
		if !seen[m.SimulationID] {
			seen[m.SimulationID] = true
			ids = append(ids, m.SimulationID)
		}
	}
	return ids
}

func metaDiff(c, e registry.SimulationMeta) string {
	var diffs []string
	if c.EntryNodeID != e.EntryNodeID {
		diffs = append(diffs, fmt.Sprintf("entry_node_id %q != %q", c.EntryNodeID, e.EntryNodeID))
	}
	if c.Phase != e.Phase {
		diffs = append(diffs, fmt.Sprintf("phase %d != %d", c.Phase, e.Phase))
	}
	if c.Difficulty != e.Difficulty {
		diffs = append(diffs, fmt.Sprintf("difficulty %q != %q", c.Difficulty, e.Difficulty))
	}
	if len(diffs) == 0 {
		return ""
	}
	return "content and engine disagree: " + strings.Join(diffs, ", ")
}
