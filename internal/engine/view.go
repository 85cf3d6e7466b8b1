package engine

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/orbs"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Turn is what a client renders after every request.
type Turn struct {
	GameID       uuid.UUID            `json:"game_id"`
	Version      int64                `json:"version"`
	CharacterID  string               `json:"character_id"`
	Trust        int                  `json:"trust"`
	Relationship string               `json:"relationship"`
	Node         NodeView             `json:"node"`
	Choices      []ChoiceView         `json:"choices"`
	Ended        bool                 `json:"ended"` // Node has no choices
	Patterns     state.PlayerPatterns `json:"patterns"`
	Resonance    orbs.Resonance       `json:"resonance"`
	Progress     orbs.TierProgress    `json:"progress"`
}

// NodeView is the displayable part of a node.
type NodeView struct {
	NodeID     string               `json:"node_id"`
	Speaker    string               `json:"speaker"`
	Text       string               `json:"text"`
	Emotion    string               `json:"emotion,omitempty"`
	Tags       []string             `json:"tags,omitempty"`
	Simulation *dialogue.Simulation `json:"simulation,omitempty"`
}

// ChoiceView is a visible choice. Hidden choices are never sent to clients.
type ChoiceView struct {
	ChoiceID   string              `json:"choice_id"`
	Text       string              `json:"text"`
	Enabled    bool                `json:"enabled"`
	ReasonCode dialogue.ReasonCode `json:"reason_code,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// buildTurn renders gs on graph. resonance is the value computed during the
// turn; nil recomputes it, which never reports a tier as just unlocked once
// its flag is stored.
func (e *Engine) buildTurn(gs *state.GameState, graph *dialogue.DialogueGraph, resonance *orbs.Resonance) *Turn {
	t := &Turn{
		GameID:      gs.ID,
		Version:     gs.Version,
		CharacterID: gs.CurrentCharacterID,
		Choices:     []ChoiceView{},
		Patterns:    gs.Patterns,
	}
	if resonance != nil {
		t.Resonance = *resonance
	} else {
		t.Resonance = orbs.CalculateOrbResonance(gs.Patterns, gs.GlobalFlags)
	}
	t.Progress = orbs.GetOrbTierProgress(t.Resonance.TotalOrbs)

	encounters := 0
	if cs, ok := gs.GetCharacter(gs.CurrentCharacterID); ok {
		t.Trust = cs.Trust
		t.Relationship = cs.RelationshipStatus
		encounters = cs.EncounterCount - 1
	}

	node, ok := graph.Node(gs.CurrentNodeID)
	if !ok {
		t.Node = NodeView{NodeID: gs.CurrentNodeID}
		t.Ended = true
		return t
	}

	variation := node.ContentFor(encounters)
	t.Node = NodeView{
		NodeID:     node.NodeID,
		Speaker:    node.Speaker,
		Text:       variation.Text,
		Emotion:    variation.Emotion,
		Tags:       node.Tags,
		Simulation: node.Simulation,
	}

	evals := dialogue.EvaluateChoices(node, gs, gs.CurrentCharacterID, gs.GetSkillLevels())
	if len(evals) > 0 && len(dialogue.EnabledChoices(evals)) == 0 {
		e.logger.Warn("No enabled choices on node",
			"game_id", gs.ID,
			"node_id", node.NodeID,
			"character_id", gs.CurrentCharacterID)
	}
	for _, ev := range evals {
		if !ev.Visible {
			continue
		}
		t.Choices = append(t.Choices, ChoiceView{
			ChoiceID:   ev.Choice.ChoiceID,
			Text:       ev.Text,
			Enabled:    ev.Enabled,
			ReasonCode: ev.ReasonCode,
			Reason:     ev.Reason,
		})
	}
	t.Ended = len(node.Choices) == 0
	return t
}
