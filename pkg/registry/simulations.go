package registry

import "sort"

// SimulationMeta is the metadata both simulation registries must agree on.
type SimulationMeta struct {
	SimulationID string `json:"simulation_id" yaml:"simulation_id"`
	CharacterID  string `json:"character_id" yaml:"character_id"`
	EntryNodeID  string `json:"entry_node_id" yaml:"entry_node_id"`
	Phase        int    `json:"phase" yaml:"phase"`           // 1-based; 0 means unset
	Difficulty   string `json:"difficulty" yaml:"difficulty"` // e.g. "beginner", "intermediate", "advanced"
}

// ContentSimulation is an authoring-side simulation entry.
type ContentSimulation struct {
	SimulationMeta     `json:",inline" yaml:",inline"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	LearningObjectives []string `json:"learning_objectives,omitempty" yaml:"learning_objectives,omitempty"`
}

// EngineSimulation is an engine-side simulation entry describing how it is wired.
type EngineSimulation struct {
	SimulationMeta   `json:",inline" yaml:",inline"`
	Component        string `json:"component" yaml:"component"`
	TimeLimitSeconds int    `json:"time_limit_seconds,omitempty" yaml:"time_limit_seconds,omitempty"`
}

// ContentRegistry is the content metadata registry.
type ContentRegistry struct {
	Simulations []ContentSimulation `json:"simulations" yaml:"simulations"`
}

// EngineRegistry is the engine/library metadata registry.
type EngineRegistry struct {
	Simulations []EngineSimulation `json:"simulations" yaml:"simulations"`
}

// Metas returns the shared metadata of every content entry.
func (r *ContentRegistry) Metas() []SimulationMeta {
	if r == nil {
		return nil
	}
	out := make([]SimulationMeta, 0, len(r.Simulations))
	for _, s := range r.Simulations {
		out = append(out, s.SimulationMeta)
	}
	return out
}

// Metas returns the shared metadata of every engine entry.
func (r *EngineRegistry) Metas() []SimulationMeta {
	if r == nil {
		return nil
	}
	out := make([]SimulationMeta, 0, len(r.Simulations))
	for _, s := range r.Simulations {
		out = append(out, s.SimulationMeta)
	}
	return out
}

// GroupByCharacter indexes entries by character id, preserving input order.
func GroupByCharacter(metas []SimulationMeta) map[string][]SimulationMeta {
	out := make(map[string][]SimulationMeta)
	for _, m := range metas {
		out[m.CharacterID] = append(out[m.CharacterID], m)
	}
	return out
}

// Characters returns the union of character ids across groups, sorted.
func Characters(groups ...map[string][]SimulationMeta) []string {
	seen := make(map[string]bool)
	for _, g := range groups {
		for id := range g {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
