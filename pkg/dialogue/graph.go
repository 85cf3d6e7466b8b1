// Package dialogue defines conversation graphs and the pure functions that
// decide which choices a player sees and where a choice leads.
package dialogue

import (
	"slices"
	"sort"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Node tags with engine meaning.
const (
	TagTerminal   = "terminal"   // Conversation ends here
	TagPivotal    = "pivotal"    // Major narrative beat
	TagBoundary   = "boundary"   // Hands off to another character or system
	TagSimulation = "simulation" // Hands off to a simulation
)

// DialogueGraph is one character's conversation.
type DialogueGraph struct {
	GraphID      string                   `json:"graph_id" yaml:"graph_id"`
	CharacterID  string                   `json:"character_id" yaml:"character_id"`
	StartNodeID  string                   `json:"start_node_id" yaml:"start_node_id"`
	SpeakerNames []string                 `json:"speaker_names,omitempty" yaml:"speaker_names,omitempty"` // Display names that resolve to CharacterID
	Nodes        map[string]*DialogueNode `json:"nodes" yaml:"nodes"`
}

// DialogueNode is a single narrative beat.
type DialogueNode struct {
	NodeID        string                       `json:"node_id" yaml:"node_id"`
	Speaker       string                       `json:"speaker" yaml:"speaker"`
	Content       []ContentVariation           `json:"content" yaml:"content"`
	Choices       []ConditionalChoice          `json:"choices,omitempty" yaml:"choices,omitempty"`
	RequiredState *conditionals.StateCondition `json:"required_state,omitempty" yaml:"required_state,omitempty"` // Entry gate, distinct from choice gates
	Simulation    *Simulation                  `json:"simulation,omitempty" yaml:"simulation,omitempty"`
	Tags          []string                     `json:"tags,omitempty" yaml:"tags,omitempty"`
	OnEnter       *state.StateChange           `json:"on_enter,omitempty" yaml:"on_enter,omitempty"` // Applied when the node is entered
}

// ContentVariation is one rendering of a node's text.
type ContentVariation struct {
	Text        string `json:"text" yaml:"text"`
	Emotion     string `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	VariationID string `json:"variation_id,omitempty" yaml:"variation_id,omitempty"`
}

// Simulation describes a simulation handoff from a node.
type Simulation struct {
	Phase      int    `json:"phase" yaml:"phase"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
}

// ConditionalChoice is a player response option.
type ConditionalChoice struct {
	ChoiceID         string                       `json:"choice_id" yaml:"choice_id"`
	Text             string                       `json:"text" yaml:"text"`
	NextNodeID       string                       `json:"next_node_id" yaml:"next_node_id"`
	VisibleCondition *conditionals.StateCondition `json:"visible_condition,omitempty" yaml:"visible_condition,omitempty"`
	EnabledCondition *conditionals.StateCondition `json:"enabled_condition,omitempty" yaml:"enabled_condition,omitempty"`
	RequiredSkill    *SkillRequirement            `json:"required_skill,omitempty" yaml:"required_skill,omitempty"`
	RequiredOrbFill  *OrbFillRequirement          `json:"required_orb_fill,omitempty" yaml:"required_orb_fill,omitempty"`
	Pattern          state.PatternType            `json:"pattern,omitempty" yaml:"pattern,omitempty"` // Pattern this choice demonstrates, +1 orb
	VoiceVariants    map[state.PatternType]string `json:"voice_variants,omitempty" yaml:"voice_variants,omitempty"`
	Consequence      *state.StateChange           `json:"consequence,omitempty" yaml:"consequence,omitempty"`
}

// SkillRequirement enables a choice only above a skill level.
type SkillRequirement struct {
	Skill    string  `json:"skill" yaml:"skill"`
	MinLevel float64 `json:"min_level" yaml:"min_level"`
}

// OrbFillRequirement enables a choice only once a pattern has enough orbs.
type OrbFillRequirement struct {
	Pattern state.PatternType `json:"pattern" yaml:"pattern"`
	Min     int               `json:"min" yaml:"min"`
}

// Node returns a node by id.
func (g *DialogueGraph) Node(nodeID string) (*DialogueNode, bool) {
	if g == nil || g.Nodes == nil {
		return nil, false
	}
	n, ok := g.Nodes[nodeID]
	return n, ok && n != nil
}

// NodeIDs returns every node id in lexical order.
func (g *DialogueGraph) NodeIDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		if n != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Normalize fills node ids from their map keys.
func (g *DialogueGraph) Normalize() {
	for id, n := range g.Nodes {
		if n != nil && n.NodeID == "" {
			n.NodeID = id
		}
	}
}

// HasTag reports whether the node carries tag.
func (n *DialogueNode) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Choice returns a choice by id.
func (n *DialogueNode) Choice(choiceID string) (*ConditionalChoice, bool) {
	for i := range n.Choices {
		if n.Choices[i].ChoiceID == choiceID {
			return &n.Choices[i], true
		}
	}
	return nil, false
}

// ContentFor picks a content variation. Variations rotate with the number of
// prior encounters so a revisited node reads differently.
func (n *DialogueNode) ContentFor(encounters int) ContentVariation {
	if len(n.Content) == 0 {
		return ContentVariation{}
	}
	return n.Content[max(encounters, 0)%len(n.Content)]
}
