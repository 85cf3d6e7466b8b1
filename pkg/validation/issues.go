// Package validation statically checks dialogue graphs and their registries
// for soft-locks, dangling references and metadata drift.
package validation

import (
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Severity grades an issue. Only errors make a graph invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueType names a class of defect.
type IssueType string

// Gating issues
const (
	IssueUnreachableNextNode IssueType = "unreachable_next_node"
	IssueNoChoices           IssueType = "no_choices"
	IssueAllChoicesGated     IssueType = "all_choices_gated"
	IssueMissingStartNode    IssueType = "missing_start_node"
	IssueInvalidCondition    IssueType = "invalid_condition"
	IssueEmptyContent        IssueType = "empty_content"
	IssueDuplicateChoiceID   IssueType = "duplicate_choice_id"
	IssueEmptyGraph          IssueType = "empty_graph"
)

// Pattern unlock issues
const (
	IssueMissingNode    IssueType = "missing_node"
	IssueUnknownPattern IssueType = "unknown_pattern"
)

// Registry alignment issues
const (
	IssueInvalidIDFormat  IssueType = "invalid_id_format"
	IssueMissingInEngine  IssueType = "missing_in_engine"
	IssueMissingInContent IssueType = "missing_in_content"
	IssueEntryNodeMissing IssueType = "entry_node_missing"
	IssueMissingPhase     IssueType = "missing_phase"
	IssueMissingDiff      IssueType = "missing_difficulty"
	IssueMetadataMismatch IssueType = "metadata_mismatch"
	IssueUnknownCharacter IssueType = "unknown_character"
	IssueDuplicateID      IssueType = "duplicate_id"
)

// GatingIssue is a reachability or soft-lock defect in a single graph.
type GatingIssue struct {
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	NodeID       string    `json:"node_id,omitempty"`
	ChoiceID     string    `json:"choice_id,omitempty"`
	TargetNodeID string    `json:"target_node_id,omitempty"`
	Message      string    `json:"message"`
}

// PatternUnlockIssue is a pattern-affinity registry entry that does not match its graph.
type PatternUnlockIssue struct {
	Type        IssueType         `json:"type"`
	Severity    Severity          `json:"severity"`
	CharacterID string            `json:"character_id"`
	Pattern     state.PatternType `json:"pattern,omitempty"`
	NodeID      string            `json:"node_id,omitempty"`
	Message     string            `json:"message"`
}

// Registry names used in alignment issues.
const (
	RegistryContent = "content"
	RegistryEngine  = "engine"
)

// AlignmentIssue is a disagreement between the content and engine simulation registries.
type AlignmentIssue struct {
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	CharacterID  string    `json:"character_id"`
	SimulationID string    `json:"simulation_id,omitempty"`
	Registry     string    `json:"registry,omitempty"`
	Message      string    `json:"message"`
}

// Summary counts what a graph contains and what was found wrong with it.
type Summary struct {
	TotalNodes    int `json:"total_nodes"`
	TotalChoices  int `json:"total_choices"`
	TerminalNodes int `json:"terminal_nodes"`
	GatedNodes    int `json:"gated_nodes"`
	GatedChoices  int `json:"gated_choices"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
}

// Result is the outcome of validating one graph.
type Result struct {
	Valid        bool          `json:"valid"`
	GatingIssues []GatingIssue `json:"gating_issues"`
	Summary      Summary       `json:"summary"`
}

// ValidateDialogueGraph runs the gating checks over graph and summarises it.
// The graph is valid iff no error-severity issue was found.
func ValidateDialogueGraph(graph *dialogue.DialogueGraph, characterID string) Result {
	issues := ValidateDialogueGating(graph, characterID)
	sum := summarize(graph)
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			sum.Errors++
		case SeverityWarning:
			sum.Warnings++
		}
	}
	return Result{
		Valid:        sum.Errors == 0,
		GatingIssues: issues,
		Summary:      sum,
	}
}

func summarize(graph *dialogue.DialogueGraph) Summary {
	var sum Summary
	if graph == nil {
		return sum
	}
	for _, node := range graph.Nodes {
		if node == nil {
			continue
		}
		sum.TotalNodes++
		sum.TotalChoices += len(node.Choices)
		if node.HasTag(dialogue.TagTerminal) {
			sum.TerminalNodes++
		}
		if !node.RequiredState.IsEmpty() {
			sum.GatedNodes++
		}
		for _, c := range node.Choices {
			if !c.VisibleCondition.IsEmpty() {
				sum.GatedChoices++
			}
		}
	}
	return sum
}

// HasErrors reports whether any issue has error severity.
func HasErrors[T interface{ severity() Severity }](issues []T) bool {
	for _, i := range issues {
		if i.severity() == SeverityError {
			return true
		}
	}
	return false
}

func (i GatingIssue) severity() Severity        { return i.Severity }
func (i PatternUnlockIssue) severity() Severity { return i.Severity }
func (i AlignmentIssue) severity() Severity     { return i.Severity }
