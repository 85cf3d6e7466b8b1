package conditionals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Validate reports structural defects that make a condition impossible or
// ambiguous to satisfy, such as inverted ranges or unknown pattern names.
// A nil condition has no defects.
func Validate(cond *StateCondition) []string {
	if cond == nil {
		return nil
	}

	var problems []string
	if cond.Trust != nil {
		if msg := validateRange(*cond.Trust); msg != "" {
			problems = append(problems, "trust "+msg)
		}
	}

	for _, status := range cond.RelationshipStatus {
		if strings.TrimSpace(status) == "" {
			problems = append(problems, "relationship_status contains an empty label")
		}
	}

	for name, flags := range map[string][]string{
		"has_global_flags":      cond.HasGlobalFlags,
		"lacks_global_flags":    cond.LacksGlobalFlags,
		"has_knowledge_flags":   cond.HasKnowledgeFlags,
		"lacks_knowledge_flags": cond.LacksKnowledgeFlags,
	} {
		for _, f := range flags {
			if strings.TrimSpace(f) == "" {
				problems = append(problems, name+" contains an empty flag")
			}
		}
	}

	for _, f := range cond.HasGlobalFlags {
		for _, g := range cond.LacksGlobalFlags {
			if f == g {
				problems = append(problems, fmt.Sprintf("global flag %q is both required and forbidden", f))
			}
		}
	}
	for _, f := range cond.HasKnowledgeFlags {
		for _, g := range cond.LacksKnowledgeFlags {
			if f == g {
				problems = append(problems, fmt.Sprintf("knowledge flag %q is both required and forbidden", f))
			}
		}
	}

	for p, r := range cond.Patterns {
		if !state.IsValidPattern(p) {
			problems = append(problems, fmt.Sprintf("unknown pattern %q", p))
			continue
		}
		if msg := validateRange(r); msg != "" {
			problems = append(problems, fmt.Sprintf("pattern %s %s", p, msg))
		} else if r.Max != nil && *r.Max < 0 {
			problems = append(problems, fmt.Sprintf("pattern %s max %d is below zero", p, *r.Max))
		}
	}

	sort.Strings(problems)
	return problems
}

func validateRange(r Range) string {
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Sprintf("min %d is greater than max %d", *r.Min, *r.Max)
	}
	return ""
}
