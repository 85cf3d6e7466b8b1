package dialogue

import (
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
)

// Navigator resolves graph transitions. It holds no per-session state; every
// call works only on the graph and state passed in.
type Navigator struct {
	speakers SpeakerIndex
	logger   *slog.Logger
}

// NewNavigator creates a navigator that resolves speakers through speakers.
func NewNavigator(speakers SpeakerIndex, logger *slog.Logger) *Navigator {
	if speakers == nil {
		speakers = make(SpeakerIndex)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		speakers: speakers,
		logger:   logger,
	}
}

// CharacterFor resolves the character whose trust and knowledge gate a node.
// An empty result means character-scoped clauses are skipped.
func (n *Navigator) CharacterFor(node *DialogueNode) string {
	if node == nil {
		return ""
	}
	id, ok := n.speakers.Resolve(node.Speaker)
	if !ok {
		return ""
	}
	return id
}

// GetAvailableNodes returns the nodes one hop from fromNodeID whose entry gate
// is satisfied by view. Missing targets are skipped. Each node appears once,
// in the order its first choice lists it.
func (n *Navigator) GetAvailableNodes(graph *DialogueGraph, view conditionals.StateView, fromNodeID string) []*DialogueNode {
	from, ok := graph.Node(fromNodeID)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var available []*DialogueNode
	for _, choice := range from.Choices {
		if seen[choice.NextNodeID] {
			continue
		}
		seen[choice.NextNodeID] = true

		target, ok := graph.Node(choice.NextNodeID)
		if !ok {
			continue
		}
		if conditionals.Evaluate(target.RequiredState, view, n.CharacterFor(target)) {
			available = append(available, target)
		}
	}
	return available
}

// AdvanceResult is the outcome of following a choice.
type AdvanceResult struct {
	NodeID string        // Node the player is on after the call
	Node   *DialogueNode // Nil only when the current node itself is missing
	Moved  bool          // False when the engine held position
}

// Advance follows choiceID from currentNodeID. A missing choice or target is
// a content defect: it is logged and the player stays on the current node.
func (n *Navigator) Advance(graph *DialogueGraph, currentNodeID, choiceID string) AdvanceResult {
	current, ok := graph.Node(currentNodeID)
	if !ok {
		n.logger.Error("Current dialogue node not found, holding position",
			"graph_id", graphID(graph),
			"node_id", currentNodeID)
		return AdvanceResult{NodeID: currentNodeID}
	}

	hold := AdvanceResult{NodeID: currentNodeID, Node: current}

	choice, ok := current.Choice(choiceID)
	if !ok {
		n.logger.Warn("Choice not found on node, holding position",
			"graph_id", graphID(graph),
			"node_id", currentNodeID,
			"choice_id", choiceID)
		return hold
	}

	next, ok := graph.Node(choice.NextNodeID)
	if !ok {
		n.logger.Error("Choice targets missing node, holding position",
			"graph_id", graphID(graph),
			"node_id", currentNodeID,
			"choice_id", choiceID,
			"next_node_id", choice.NextNodeID)
		return hold
	}

	return AdvanceResult{NodeID: choice.NextNodeID, Node: next, Moved: true}
}

func graphID(g *DialogueGraph) string {
	if g == nil {
		return ""
	}
	return g.GraphID
}
