package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

func intPtr(i int) *int {
	return &i
}

func text(s string) []dialogue.ContentVariation {
	return []dialogue.ContentVariation{{Text: s}}
}

func graphOf(start string, nodes map[string]*dialogue.DialogueNode) *dialogue.DialogueGraph {
	g := &dialogue.DialogueGraph{
		GraphID:     "test_graph",
		CharacterID: "samuel",
		StartNodeID: start,
		Nodes:       nodes,
	}
	g.Normalize()
	return g
}

// ignoreMessage compares issues on their structured fields only.
var ignoreMessage = cmpopts.IgnoreFields(GatingIssue{}, "Message")

func TestValidateDialogueGating(t *testing.T) {
	trustTen := &conditionals.StateCondition{Trust: &conditionals.Range{Min: intPtr(10)}}

	tests := []struct {
		name     string
		graph    *dialogue.DialogueGraph
		expected []GatingIssue
	}{
		{
			name: "clean graph",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "b"}}},
				"b": {Content: text("bye"), Tags: []string{dialogue.TagTerminal}},
			}),
			expected: nil,
		},
		{
			name: "dangling choice target",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "nowhere"}}},
			}),
			expected: []GatingIssue{
				{Type: IssueUnreachableNextNode, Severity: SeverityError, NodeID: "a", ChoiceID: "go", TargetNodeID: "nowhere"},
			},
		},
		{
			name: "every choice needs trust 10",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{
					{ChoiceID: "x", NextNodeID: "b", VisibleCondition: trustTen},
					{ChoiceID: "y", NextNodeID: "b", VisibleCondition: trustTen},
				}},
				"b": {Content: text("bye"), Tags: []string{dialogue.TagTerminal}},
			}),
			expected: []GatingIssue{
				{Type: IssueAllChoicesGated, Severity: SeverityError, NodeID: "a"},
			},
		},
		{
			name: "gated node behind gated choices is excluded",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "late"}}},
				"late": {
					Content:       text("later"),
					RequiredState: trustTen,
					Choices:       []dialogue.ConditionalChoice{{ChoiceID: "x", NextNodeID: "a", VisibleCondition: trustTen}},
				},
			}),
			expected: nil,
		},
		{
			name: "dead end without tag warns",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "b"}}},
				"b": {Content: text("...")},
			}),
			expected: []GatingIssue{
				{Type: IssueNoChoices, Severity: SeverityWarning, NodeID: "b"},
			},
		},
		{
			name: "tagged leaves do not warn",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{
					{ChoiceID: "t", NextNodeID: "term"},
					{ChoiceID: "s", NextNodeID: "sim"},
					{ChoiceID: "b", NextNodeID: "bound"},
				}},
				"term":  {Content: text("end"), Tags: []string{dialogue.TagTerminal}},
				"sim":   {Content: text("sim"), Tags: []string{dialogue.TagSimulation}},
				"bound": {Content: text("over to maya"), Tags: []string{dialogue.TagBoundary}},
			}),
			expected: nil,
		},
		{
			name: "missing start node",
			graph: graphOf("start", map[string]*dialogue.DialogueNode{
				"a": {Content: text("hi"), Tags: []string{dialogue.TagTerminal}},
			}),
			expected: []GatingIssue{
				{Type: IssueMissingStartNode, Severity: SeverityError, TargetNodeID: "start"},
			},
		},
		{
			name: "broken conditions and blank content",
			graph: graphOf("a", map[string]*dialogue.DialogueNode{
				"a": {
					Content: text("   "),
					Choices: []dialogue.ConditionalChoice{
						{
							ChoiceID:         "go",
							NextNodeID:       "b",
							VisibleCondition: &conditionals.StateCondition{Trust: &conditionals.Range{Min: intPtr(5), Max: intPtr(1)}},
						},
						{ChoiceID: "go", NextNodeID: "b", Pattern: "bravery"},
					},
				},
				"b": {Content: text("bye"), Tags: []string{dialogue.TagTerminal}},
			}),
			expected: []GatingIssue{
				{Type: IssueEmptyContent, Severity: SeverityWarning, NodeID: "a"},
				{Type: IssueInvalidCondition, Severity: SeverityError, NodeID: "a", ChoiceID: "go"},
				{Type: IssueDuplicateChoiceID, Severity: SeverityError, NodeID: "a", ChoiceID: "go"},
				{Type: IssueInvalidCondition, Severity: SeverityError, NodeID: "a", ChoiceID: "go"},
			},
		},
		{
			name:     "nil graph",
			graph:    nil,
			expected: []GatingIssue{{Type: IssueEmptyGraph, Severity: SeverityError}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDialogueGating(tt.graph, "samuel")
			if diff := cmp.Diff(tt.expected, got, ignoreMessage, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ValidateDialogueGating() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateDialogueGating_UnreachableReferencesTarget(t *testing.T) {
	g := graphOf("a", map[string]*dialogue.DialogueNode{
		"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "ghost_node"}}},
	})
	issues := ValidateDialogueGating(g, "samuel")
	require.Len(t, issues, 1)
	assert.Equal(t, "ghost_node", issues[0].TargetNodeID)
	assert.Contains(t, issues[0].Message, "ghost_node")
}

func TestValidateDialogueGating_DefaultsToGraphCharacter(t *testing.T) {
	gate := &conditionals.StateCondition{Trust: &conditionals.Range{Min: intPtr(10)}}
	g := graphOf("a", map[string]*dialogue.DialogueNode{
		"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "x", NextNodeID: "b", VisibleCondition: gate}}},
		"b": {Content: text("bye"), Tags: []string{dialogue.TagTerminal}},
	})

	want := ValidateDialogueGating(g, "samuel")
	got := ValidateDialogueGating(g, "")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValidateDialogueGating() mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, got, 1)
	assert.Equal(t, IssueAllChoicesGated, got[0].Type)
}

func TestValidateDialogueGating_SortedByNode(t *testing.T) {
	g := graphOf("a", map[string]*dialogue.DialogueNode{
		"c": {Content: text("c")},
		"a": {Content: text("a"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "1", NextNodeID: "c"}, {ChoiceID: "2", NextNodeID: "b"}}},
		"b": {Content: text("b")},
	})
	issues := ValidateDialogueGating(g, "samuel")
	require.Len(t, issues, 2)
	assert.Equal(t, "b", issues[0].NodeID)
	assert.Equal(t, "c", issues[1].NodeID)
}

func TestValidateDialogueGraph(t *testing.T) {
	t.Run("warnings alone keep the graph valid", func(t *testing.T) {
		g := graphOf("a", map[string]*dialogue.DialogueNode{
			"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{
				{ChoiceID: "go", NextNodeID: "b"},
				{ChoiceID: "gated", NextNodeID: "b", VisibleCondition: &conditionals.StateCondition{HasGlobalFlags: []string{"met_maya"}}},
			}},
			"b": {Content: text("...")},
		})
		res := ValidateDialogueGraph(g, "samuel")
		assert.True(t, res.Valid)
		assert.Equal(t, Summary{
			TotalNodes:   2,
			TotalChoices: 2,
			GatedChoices: 1,
			Warnings:     1,
		}, res.Summary)
	})

	t.Run("an error invalidates the graph", func(t *testing.T) {
		g := graphOf("a", map[string]*dialogue.DialogueNode{
			"a": {Content: text("hi"), Choices: []dialogue.ConditionalChoice{{ChoiceID: "go", NextNodeID: "nope"}}},
		})
		res := ValidateDialogueGraph(g, "samuel")
		assert.False(t, res.Valid)
		assert.Equal(t, 1, res.Summary.Errors)
		assert.True(t, HasErrors(res.GatingIssues))
	})
}

func TestMinimalState(t *testing.T) {
	g := graphOf("intro", map[string]*dialogue.DialogueNode{"intro": {Content: text("hi")}})
	gs := MinimalState(g, "samuel")

	cs, ok := gs.GetCharacter("samuel")
	require.True(t, ok)
	assert.Equal(t, 0, cs.Trust)
	assert.Equal(t, state.RelationshipStranger, cs.RelationshipStatus)
	assert.Equal(t, "intro", gs.CurrentNodeID)
	assert.Equal(t, "samuel", gs.CurrentCharacterID)
	assert.Empty(t, gs.GlobalFlags)
	assert.Zero(t, gs.Patterns.Total())
}
