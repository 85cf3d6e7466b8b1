package validation

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// MinimalState is the least-privileged state a player can hold on entering
// graph: no flags, zero patterns, characterID at trust 0, standing on the start node.
func MinimalState(graph *dialogue.DialogueGraph, characterID string) *state.GameState {
	gs := state.NewGameState("validator")
	if characterID != "" {
		gs.EnsureCharacter(characterID)
		gs.CurrentCharacterID = characterID
	}
	if graph != nil {
		gs.CurrentNodeID = graph.StartNodeID
	}
	return gs
}

// ValidateDialogueGating checks every node of graph for broken references and
// for choice sets that lock out a fresh player. An empty characterID means
// graph.CharacterID. Issues are ordered by node id.
func ValidateDialogueGating(graph *dialogue.DialogueGraph, characterID string) []GatingIssue {
	if graph == nil || len(graph.Nodes) == 0 {
		return []GatingIssue{{
			Type:     IssueEmptyGraph,
			Severity: SeverityError,
			Message:  "graph has no nodes",
		}}
	}

	if characterID == "" {
		characterID = graph.CharacterID
	}

	var issues []GatingIssue
	if _, ok := graph.Node(graph.StartNodeID); !ok {
		issues = append(issues, GatingIssue{
			Type:         IssueMissingStartNode,
			Severity:     SeverityError,
			TargetNodeID: graph.StartNodeID,
			Message:      fmt.Sprintf("start node %q does not exist", graph.StartNodeID),
		})
	}

	minimal := MinimalState(graph, characterID)
	for _, nodeID := range graph.NodeIDs() {
		node, _ := graph.Node(nodeID)
		issues = append(issues, checkNode(graph, node, minimal, characterID)...)
	}
	return issues
}

func checkNode(graph *dialogue.DialogueGraph, node *dialogue.DialogueNode, minimal *state.GameState, characterID string) []GatingIssue {
	var issues []GatingIssue
	add := func(t IssueType, sev Severity, choiceID, target, msg string) {
		issues = append(issues, GatingIssue{
			Type:         t,
			Severity:     sev,
			NodeID:       node.NodeID,
			ChoiceID:     choiceID,
			TargetNodeID: target,
			Message:      msg,
		})
	}

	if !hasContent(node) {
		add(IssueEmptyContent, SeverityWarning, "", "", "node has no content text")
	}

	for _, p := range conditionals.Validate(node.RequiredState) {
		add(IssueInvalidCondition, SeverityError, "", "", "required_state: "+p)
	}

	seen := make(map[string]bool)
	for _, c := range node.Choices {
		if seen[c.ChoiceID] {
			add(IssueDuplicateChoiceID, SeverityError, c.ChoiceID, "",
				fmt.Sprintf("choice id %q is used more than once", c.ChoiceID))
		}
		seen[c.ChoiceID] = true

		if _, ok := graph.Node(c.NextNodeID); !ok {
			add(IssueUnreachableNextNode, SeverityError, c.ChoiceID, c.NextNodeID,
				fmt.Sprintf("choice %q points at missing node %q", c.ChoiceID, c.NextNodeID))
		}
		for _, p := range conditionals.Validate(c.VisibleCondition) {
			add(IssueInvalidCondition, SeverityError, c.ChoiceID, "", "visible_condition: "+p)
		}
		for _, p := range conditionals.Validate(c.EnabledCondition) {
			add(IssueInvalidCondition, SeverityError, c.ChoiceID, "", "enabled_condition: "+p)
		}
		if c.Pattern != "" && !state.IsValidPattern(c.Pattern) {
			add(IssueInvalidCondition, SeverityError, c.ChoiceID, "",
				fmt.Sprintf("unknown pattern %q", c.Pattern))
		}
		if c.RequiredOrbFill != nil && !state.IsValidPattern(c.RequiredOrbFill.Pattern) {
			add(IssueInvalidCondition, SeverityError, c.ChoiceID, "",
				fmt.Sprintf("required_orb_fill: unknown pattern %q", c.RequiredOrbFill.Pattern))
		}
	}

	if len(node.Choices) == 0 {
		if !endsConversation(node) {
			add(IssueNoChoices, SeverityWarning, "", "",
				"node has no choices and is not tagged terminal, simulation or boundary")
		}
		return issues
	}

	// A node a fresh player cannot enter cannot soft-lock them.
	if !conditionals.Evaluate(node.RequiredState, minimal, characterID) {
		return issues
	}
	if !anyVisible(node, minimal, characterID) {
		add(IssueAllChoicesGated, SeverityError, "", "",
			fmt.Sprintf("all %d choices are hidden from a fresh player", len(node.Choices)))
	}
	return issues
}

func anyVisible(node *dialogue.DialogueNode, view conditionals.StateView, characterID string) bool {
	for _, c := range node.Choices {
		if conditionals.Evaluate(c.VisibleCondition, view, characterID) {
			return true
		}
	}
	return false
}

func endsConversation(node *dialogue.DialogueNode) bool {
	return node.HasTag(dialogue.TagTerminal) ||
		node.HasTag(dialogue.TagSimulation) ||
		node.HasTag(dialogue.TagBoundary)
}

func hasContent(node *dialogue.DialogueNode) bool {
	for _, v := range node.Content {
		if strings.TrimSpace(v.Text) != "" {
			return true
		}
	}
	return false
}
