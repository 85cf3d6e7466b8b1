// Package content loads dialogue graphs and registries from a data directory.
//
// Layout:
//
//	<dataDir>/graphs/<character_id>.yaml|.yml|.json
//	<dataDir>/registries/pattern_affinity.yaml
//	<dataDir>/registries/content_simulations.yaml
//	<dataDir>/registries/engine_simulations.yaml
//
// Decoding is strict: unknown fields are errors.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/registry"
)

// ErrGraphNotFound is returned when no graph file exists for a character.
var ErrGraphNotFound = errors.New("dialogue graph not found")

const (
	graphsDir     = "graphs"
	registriesDir = "registries"

	PatternAffinityFile    = "pattern_affinity"
	ContentSimulationsFile = "content_simulations"
	EngineSimulationsFile  = "engine_simulations"
)

var extensions = []string{".yaml", ".yml", ".json"}

// Loader reads content from the filesystem.
type Loader struct {
	dataDir string
	logger  *slog.Logger
}

// NewLoader creates a loader rooted at dataDir.
func NewLoader(dataDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dataDir: dataDir, logger: logger}
}

// ListGraphs returns the character ids that have a graph file, sorted.
func (l *Loader) ListGraphs() ([]string, error) {
	dir := filepath.Join(l.dataDir, graphsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read graphs directory: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isContentExt(ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadGraph loads the graph for characterID.
func (l *Loader) LoadGraph(characterID string) (*dialogue.DialogueGraph, error) {
	path, ok := l.find(filepath.Join(l.dataDir, graphsDir), characterID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, characterID)
	}
	l.logger.Debug("Loading dialogue graph", "character_id", characterID, "path", path)
	return LoadGraphFile(path)
}

// LoadGraphFile decodes a single graph file. A missing character_id is taken
// from the file name; a conflicting one is an error.
func LoadGraphFile(path string) (*dialogue.DialogueGraph, error) {
	var g dialogue.DialogueGraph
	if err := decodeFile(path, &g); err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch g.CharacterID {
	case "":
		g.CharacterID = name
	case name:
	default:
		return nil, fmt.Errorf("graph %s declares character_id %q but is named %q", path, g.CharacterID, name)
	}
	if g.GraphID == "" {
		g.GraphID = g.CharacterID
	}
	g.Normalize()
	return &g, nil
}

// LoadPatternAffinity loads the pattern-affinity registry. A missing file yields an empty registry.
func (l *Loader) LoadPatternAffinity() (*registry.PatternAffinityRegistry, error) {
	reg := &registry.PatternAffinityRegistry{}
	if err := l.loadRegistry(PatternAffinityFile, reg); err != nil {
		return nil, err
	}
	if reg.Characters == nil {
		reg.Characters = make(map[string]registry.CharacterAffinity)
	}
	return reg, nil
}

// LoadContentRegistry loads the content simulation registry.
func (l *Loader) LoadContentRegistry() (*registry.ContentRegistry, error) {
	reg := &registry.ContentRegistry{}
	if err := l.loadRegistry(ContentSimulationsFile, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadEngineRegistry loads the engine simulation registry.
func (l *Loader) LoadEngineRegistry() (*registry.EngineRegistry, error) {
	reg := &registry.EngineRegistry{}
	if err := l.loadRegistry(EngineSimulationsFile, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (l *Loader) loadRegistry(name string, v any) error {
	path, ok := l.find(filepath.Join(l.dataDir, registriesDir), name)
	if !ok {
		l.logger.Debug("Registry file not present", "registry", name, "data_dir", l.dataDir)
		return nil
	}
	return decodeFile(path, v)
}

// find returns the first existing <dir>/<name><ext>.
func (l *Loader) find(dir, name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", false
	}
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func isContentExt(ext string) bool {
	return slices.Contains(extensions, ext)
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := Decode(filepath.Ext(path), data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Decode strictly decodes YAML or JSON according to ext.
func Decode(ext string, data []byte, v any) error {
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported content extension %q", ext)
	}
}
