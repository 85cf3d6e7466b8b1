package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/pkg/validation"
)

const brokenGraph = `character_id: ghost
start_node_id: ghost_intro
nodes:
  ghost_intro:
    speaker: Ghost
    content:
      - text: "..."
    choices:
      - choice_id: follow
        text: Follow the voice.
        next_node_id: ghost_nowhere
  ghost_quiet:
    speaker: Ghost
    content:
      - text: "Silence."
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_ShippedContent(t *testing.T) {
	out, err := execute(t, "--data", "../../data")
	require.NoError(t, err, out)
	assert.Contains(t, out, "maya [ok]")
	assert.Contains(t, out, "samuel [ok]")
	assert.Contains(t, out, "Content is valid.")
}

func TestValidate_BrokenContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graphs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphs", "ghost.yaml"), []byte(brokenGraph), 0o644))

	out, err := execute(t, "--data", dir)
	assert.True(t, errors.Is(err, errInvalid), "got %v", err)
	assert.Contains(t, out, "ghost [FAIL]")
	assert.Contains(t, out, "unreachable_next_node")
	assert.Contains(t, out, "no_choices")

	out, _ = execute(t, "--data", dir, "--warnings=false")
	assert.NotContains(t, out, "no_choices")
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "--data", "../../data", "--json", "--character", "samuel")
	require.NoError(t, err)

	var report validation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid)
	assert.Len(t, report.Graphs, 1)
	assert.Contains(t, report.Graphs, "samuel")
}

func TestValidate_MissingDataDir(t *testing.T) {
	out, err := execute(t, "--data", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Contains(t, out, "Content is valid.")
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"yaml write", fsnotify.Event{Name: "graphs/samuel.yaml", Op: fsnotify.Write}, true},
		{"json create", fsnotify.Event{Name: "registries/engine_simulations.json", Op: fsnotify.Create}, true},
		{"removed yml", fsnotify.Event{Name: "graphs/maya.yml", Op: fsnotify.Remove}, true},
		{"editor swap file", fsnotify.Event{Name: "graphs/.samuel.yaml.swp", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "graphs/samuel.yaml", Op: fsnotify.Chmod}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}
