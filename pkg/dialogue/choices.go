package dialogue

import (
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/jwebster45206/dialogue-engine/pkg/orbs"
)

// ReasonCode is a machine-readable explanation for a hidden or locked choice.
type ReasonCode string

const (
	ReasonHiddenByCondition   ReasonCode = "hidden_by_condition"
	ReasonConditionNotMet     ReasonCode = "condition_not_met"
	ReasonSkillTooLow         ReasonCode = "skill_too_low"
	ReasonOrbFillInsufficient ReasonCode = "orb_fill_insufficient"
)

// ChoiceEvaluation is a choice together with its visibility and enablement.
// A disabled but visible choice carries a ReasonCode so it can be rendered
// locked instead of hidden.
type ChoiceEvaluation struct {
	Choice     ConditionalChoice `json:"choice"`
	Text       string            `json:"text"` // Voice variant for the dominant pattern, or the base text
	Visible    bool              `json:"visible"`
	Enabled    bool              `json:"enabled"`
	ReasonCode ReasonCode        `json:"reason_code,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// EvaluateChoices evaluates every choice on a node against state.
// Visibility follows VisibleCondition. Enablement additionally checks
// EnabledCondition, RequiredSkill and RequiredOrbFill, in that order.
func EvaluateChoices(node *DialogueNode, view conditionals.StateView, characterID string, skillLevels map[string]float64) []ChoiceEvaluation {
	if node == nil {
		return nil
	}

	evals := make([]ChoiceEvaluation, 0, len(node.Choices))
	for _, choice := range node.Choices {
		eval := ChoiceEvaluation{Choice: choice, Text: ChoiceText(choice, view)}

		if !conditionals.Evaluate(choice.VisibleCondition, view, characterID) {
			eval.ReasonCode = ReasonHiddenByCondition
			eval.Reason = "Not available yet"
			evals = append(evals, eval)
			continue
		}
		eval.Visible = true

		switch {
		case !conditionals.Evaluate(choice.EnabledCondition, view, characterID):
			eval.ReasonCode = ReasonConditionNotMet
			eval.Reason = "Requirements not met"
		case choice.RequiredSkill != nil && skillLevels[choice.RequiredSkill.Skill] < choice.RequiredSkill.MinLevel:
			eval.ReasonCode = ReasonSkillTooLow
			eval.Reason = fmt.Sprintf("Requires %s %.2f", choice.RequiredSkill.Skill, choice.RequiredSkill.MinLevel)
		case choice.RequiredOrbFill != nil && !orbFillMet(choice.RequiredOrbFill, view):
			eval.ReasonCode = ReasonOrbFillInsufficient
			eval.Reason = fmt.Sprintf("Requires %d %s orbs", choice.RequiredOrbFill.Min, choice.RequiredOrbFill.Pattern)
		default:
			eval.Enabled = true
		}
		evals = append(evals, eval)
	}
	return evals
}

func orbFillMet(req *OrbFillRequirement, view conditionals.StateView) bool {
	if view == nil {
		return false
	}
	v, ok := view.GetPatterns().Get(req.Pattern)
	return ok && v >= req.Min
}

// ChoiceText returns the voice variant for the player's dominant pattern,
// falling back to the choice's base text.
func ChoiceText(choice ConditionalChoice, view conditionals.StateView) string {
	if len(choice.VoiceVariants) == 0 || view == nil {
		return choice.Text
	}
	if text, ok := choice.VoiceVariants[orbs.DominantPattern(view.GetPatterns())]; ok && text != "" {
		return text
	}
	return choice.Text
}

// EnabledChoices filters evaluations to those the player can select.
func EnabledChoices(evals []ChoiceEvaluation) []ChoiceEvaluation {
	var out []ChoiceEvaluation
	for _, e := range evals {
		if e.Visible && e.Enabled {
			out = append(out, e)
		}
	}
	return out
}
