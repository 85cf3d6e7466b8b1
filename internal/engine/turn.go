package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/orbs"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

// Choose selects choiceID on the game's current node. The chosen choice must
// be visible and enabled. All effects are applied to a clone and committed in
// one step; on any error the stored game is unchanged. A choice whose
// target is missing holds position and changes nothing.
func (e *Engine) Choose(ctx context.Context, id uuid.UUID, choiceID string) (*Turn, error) {
	gs, graph, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	node, ok := graph.Node(gs.CurrentNodeID)
	if !ok {
		e.logger.Error("Game is on a node missing from its graph",
			"game_id", id,
			"graph_id", graph.GraphID,
			"node_id", gs.CurrentNodeID)
		return nil, fmt.Errorf("%w: current node %q is missing", ErrChoiceUnavailable, gs.CurrentNodeID)
	}

	characterID := gs.CurrentCharacterID
	eval, ok := findEvaluation(dialogue.EvaluateChoices(node, gs, characterID, gs.GetSkillLevels()), choiceID)
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %q is not on node %q", ErrChoiceUnavailable, choiceID, node.NodeID)
	case !eval.Visible || !eval.Enabled:
		return nil, fmt.Errorf("%w: %q is locked (%s)", ErrChoiceUnavailable, choiceID, eval.ReasonCode)
	}

	adv := e.nav.Advance(graph, gs.CurrentNodeID, choiceID)
	if !adv.Moved {
		// Dangling target: nothing is applied or committed.
		return e.buildTurn(gs, graph, nil), nil
	}

	next := gs.Clone()
	dw := state.NewDeltaWorker(next, e.logger).WithClock(e.now)

	dw.Apply(eval.Choice.Consequence, characterID)
	if eval.Choice.Pattern != "" {
		dw.GrantPattern(eval.Choice.Pattern, 1)
	}

	next.CurrentNodeID = adv.NodeID
	e.enterNode(dw, characterID, adv.Node)

	resonance := e.resolveTier(dw, next)
	e.grantPatternUnlocks(dw, next)

	next.Version = gs.Version + 1
	turn := storage.TurnRecord{
		Version:     next.Version,
		CharacterID: characterID,
		FromNodeID:  gs.CurrentNodeID,
		ChoiceID:    choiceID,
		ToNodeID:    next.CurrentNodeID,
		Moved:       adv.Moved,
		Timestamp:   e.now(),
	}
	if resonance.TierJustUnlocked != nil {
		turn.TierUnlocked = string(*resonance.TierJustUnlocked)
	}

	if err := e.store.CommitGameState(ctx, next, turn); err != nil {
		return nil, fmt.Errorf("failed to commit turn: %w", err)
	}

	e.logger.Debug("Turn committed",
		"game_id", id,
		"choice_id", choiceID,
		"from", turn.FromNodeID,
		"to", turn.ToNodeID,
		"version", next.Version)
	return e.buildTurn(next, graph, &resonance), nil
}

// Talk switches the game to a conversation with characterID, starting at
// that character's start node. It is how boundary nodes hand off.
func (e *Engine) Talk(ctx context.Context, id uuid.UUID, characterID string) (*Turn, error) {
	gs, err := e.State(ctx, id)
	if err != nil {
		return nil, err
	}
	graph, err := e.lib.Graph(characterID)
	if err != nil {
		return nil, err
	}
	start, ok := graph.Node(graph.StartNodeID)
	if !ok {
		return nil, fmt.Errorf("graph %s has no start node %q", graph.GraphID, graph.StartNodeID)
	}

	next := gs.Clone()
	dw := state.NewDeltaWorker(next, e.logger).WithClock(e.now)
	e.openConversation(dw, next, graph, start)
	resonance := e.resolveTier(dw, next)
	e.grantPatternUnlocks(dw, next)

	next.Version = gs.Version + 1
	turn := storage.TurnRecord{
		Version:     next.Version,
		CharacterID: characterID,
		FromNodeID:  gs.CurrentNodeID,
		ToNodeID:    next.CurrentNodeID,
		Moved:       true,
		Timestamp:   e.now(),
	}
	if err := e.store.CommitGameState(ctx, next, turn); err != nil {
		return nil, fmt.Errorf("failed to commit conversation change: %w", err)
	}
	return e.buildTurn(next, graph, &resonance), nil
}

// openConversation starts an encounter with the graph's character at start.
func (e *Engine) openConversation(dw *state.DeltaWorker, gs *state.GameState, graph *dialogue.DialogueGraph, start *dialogue.DialogueNode) {
	gs.CurrentCharacterID = graph.CharacterID
	gs.CurrentNodeID = start.NodeID
	dw.BeginEncounter(graph.CharacterID)
	e.enterNode(dw, graph.CharacterID, start)
}

// enterNode applies a node's OnEnter effects and records the visit.
func (e *Engine) enterNode(dw *state.DeltaWorker, characterID string, node *dialogue.DialogueNode) {
	if node == nil {
		return
	}
	dw.Apply(node.OnEnter, characterID)
	dw.RecordVisit(characterID, node.NodeID)
}

// resolveTier computes resonance and persists the flags of a newly reached tier.
func (e *Engine) resolveTier(dw *state.DeltaWorker, gs *state.GameState) orbs.Resonance {
	res := orbs.CalculateOrbResonance(gs.Patterns, gs.GlobalFlags)
	if res.TierJustUnlocked != nil {
		dw.SetGlobalFlags(orbs.TierFlags(*res.TierJustUnlocked)...)
		e.logger.Info("Orb tier unlocked",
			"game_id", gs.ID,
			"tier", *res.TierJustUnlocked,
			"total_orbs", res.TotalOrbs)
	}
	return res
}

// grantPatternUnlocks marks nodes revealed by the current character's pattern
// affinities with an unlocked_<node> knowledge flag.
func (e *Engine) grantPatternUnlocks(dw *state.DeltaWorker, gs *state.GameState) {
	affinity, ok := e.lib.Affinity.For(gs.CurrentCharacterID)
	if !ok {
		return
	}
	cs, known := gs.GetCharacter(gs.CurrentCharacterID)

	var flags []string
	for _, nodeID := range affinity.UnlockedNodes(gs.Patterns) {
		flag := registry.UnlockFlag(nodeID)
		if known && cs.KnowledgeFlags.Has(flag) {
			continue
		}
		flags = append(flags, flag)
	}
	if len(flags) == 0 {
		return
	}
	dw.Apply(&state.StateChange{AddKnowledgeFlags: flags}, gs.CurrentCharacterID)
	e.logger.Info("Pattern unlock",
		"game_id", gs.ID,
		"character_id", gs.CurrentCharacterID,
		"flags", flags)
}

func findEvaluation(evals []dialogue.ChoiceEvaluation, choiceID string) (dialogue.ChoiceEvaluation, bool) {
	for _, ev := range evals {
		if ev.Choice.ChoiceID == choiceID {
			return ev, true
		}
	}
	return dialogue.ChoiceEvaluation{}, false
}
