package content

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
)

// Library is a fully loaded content set. It is read-only once built.
type Library struct {
	Graphs      map[string]*dialogue.DialogueGraph // Keyed by character id
	Affinity    *registry.PatternAffinityRegistry
	Simulations *registry.ContentRegistry
	Engine      *registry.EngineRegistry
	Speakers    dialogue.SpeakerIndex
}

// LoadLibrary loads every graph and registry. Unlike ListGraphs, a single
// unparseable graph fails the whole load; errors for all bad files are joined.
func (l *Loader) LoadLibrary() (*Library, error) {
	ids, err := l.ListGraphs()
	if err != nil {
		return nil, err
	}

	lib := &Library{Graphs: make(map[string]*dialogue.DialogueGraph, len(ids))}
	var errs []error
	for _, id := range ids {
		g, err := l.LoadGraph(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lib.Graphs[id] = g
	}

	if lib.Affinity, err = l.LoadPatternAffinity(); err != nil {
		errs = append(errs, err)
	}
	if lib.Simulations, err = l.LoadContentRegistry(); err != nil {
		errs = append(errs, err)
	}
	if lib.Engine, err = l.LoadEngineRegistry(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load content from %s: %w", l.dataDir, errors.Join(errs...))
	}

	graphs := make([]*dialogue.DialogueGraph, 0, len(ids))
	for _, id := range ids {
		graphs = append(graphs, lib.Graphs[id])
	}
	lib.Speakers = dialogue.NewSpeakerIndex(graphs...)

	l.logger.Info("Content loaded",
		"data_dir", l.dataDir,
		"graphs", len(lib.Graphs),
		"content_simulations", len(lib.Simulations.Simulations),
		"engine_simulations", len(lib.Engine.Simulations))
	return lib, nil
}

// Graph returns the graph for characterID.
func (lib *Library) Graph(characterID string) (*dialogue.DialogueGraph, error) {
	g, ok := lib.Graphs[characterID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, characterID)
	}
	return g, nil
}

// CharacterIDs returns the characters with graphs, sorted.
func (lib *Library) CharacterIDs() []string {
	ids := make([]string, 0, len(lib.Graphs))
	for id := range lib.Graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
