package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
	"github.com/jwebster45206/dialogue-engine/internal/handlers"
	"github.com/jwebster45206/dialogue-engine/pkg/content"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	lib, err := content.NewLoader("../../data", logger).LoadLibrary()
	require.NoError(t, err)

	store := storage.NewMockStorage()
	eng := engine.New(store, lib, logger)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, logger))
	gs := handlers.NewGameStateHandler(eng, logger)
	mux.Handle("/v1/gamestate", gs)
	mux.Handle("/v1/gamestate/", gs)
	ch := handlers.NewCharacterHandler(logger, eng)
	mux.Handle("/v1/characters", ch)
	mux.Handle("/v1/characters/", ch)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestUI(t *testing.T) ConsoleUI {
	t.Helper()
	srv := newTestServer(t)
	client := &apiClient{http: srv.Client(), baseURL: srv.URL}
	require.True(t, client.testConnection())

	m := NewConsoleUI(&ConsoleConfig{PlayerID: "tester"}, client)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(ConsoleUI)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m ConsoleUI, msg tea.Msg) ConsoleUI {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(ConsoleUI)
}

// startGame walks the character picker to samuel.
func startGame(t *testing.T) ConsoleUI {
	t.Helper()
	m := newTestUI(t)

	m = update(t, m, m.Init()())
	require.False(t, m.loadingCharacters)
	require.Len(t, m.characters, 2)
	assert.Equal(t, "maya", m.characters[0].CharacterID)
	assert.Equal(t, "samuel", m.characters[1].CharacterID)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ConsoleUI)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	m = update(t, m, cmd())
	require.NoError(t, m.err)
	require.NotNil(t, m.turn)
	return m
}

func TestConsoleUI_StartConversation(t *testing.T) {
	m := startGame(t)

	assert.False(t, m.showCharacterModal)
	assert.True(t, m.ready)
	assert.Equal(t, "samuel_intro", m.turn.Node.NodeID)
	require.Len(t, m.transcript, 1)
	assert.Equal(t, "Samuel Washington", m.transcript[0].speaker)
	assert.Equal(t, 0, m.selected)

	view := m.View()
	assert.Contains(t, view, "What is this place?")
	assert.Contains(t, view, "GAME STATE")
}

func TestConsoleUI_Choose(t *testing.T) {
	m := startGame(t)

	next, cmd := m.Update(runes("2"))
	m = next.(ConsoleUI)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, 1, m.selected)

	// The batch also carries a progress tick; send the choice directly.
	msg := m.sendChoice(m.turn.Choices[1])()
	m = update(t, m, msg)

	require.NoError(t, m.err)
	assert.False(t, m.loading)
	assert.Equal(t, "samuel_patience", m.turn.Node.NodeID)
	assert.Equal(t, 1, m.turn.Trust)
	assert.Equal(t, 1, m.turn.Patterns.Patience)

	require.Len(t, m.transcript, 3)
	assert.True(t, m.transcript[1].player)
	assert.Equal(t, "(Say nothing. Let him speak when he's ready.)", m.transcript[1].text)
}

func TestConsoleUI_LockedChoice(t *testing.T) {
	m := startGame(t)

	idx := -1
	for i, c := range m.turn.Choices {
		if c.ChoiceID == "try_signals" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	require.False(t, m.turn.Choices[idx].Enabled)

	next, cmd := m.Update(runes(string(rune('1' + idx))))
	m = next.(ConsoleUI)
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.True(t, strings.HasPrefix(m.status, "Locked:"))
}

func TestConsoleUI_OutOfRangeChoice(t *testing.T) {
	m := startGame(t)

	next, cmd := m.Update(runes("9"))
	assert.Nil(t, cmd)
	assert.False(t, next.(ConsoleUI).loading)
}

func TestConsoleUI_SelectionWraps(t *testing.T) {
	m := startGame(t)
	n := len(m.turn.Choices)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, n-1, m.selected)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.selected)
}

func TestConsoleUI_CopyGameID(t *testing.T) {
	var copied string
	orig := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = orig })

	m := startGame(t)
	m = update(t, m, runes("c"))

	assert.Equal(t, m.turn.GameID.String(), copied)
	assert.Equal(t, "Copied game ID to clipboard", m.status)
}

func TestConsoleUI_TalkToAnotherCharacter(t *testing.T) {
	m := startGame(t)
	gameID := m.turn.GameID

	m = update(t, m, runes("t"))
	require.True(t, m.showCharacterModal)
	assert.Contains(t, m.View(), "Who do you want to talk to?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ConsoleUI)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	require.NoError(t, m.err)
	assert.False(t, m.showCharacterModal)
	assert.Equal(t, gameID, m.turn.GameID)
	assert.Equal(t, "maya", m.turn.CharacterID)
	assert.Equal(t, "maya_intro", m.turn.Node.NodeID)

	last := m.transcript[len(m.transcript)-2]
	assert.True(t, last.player)
	assert.Contains(t, last.text, "You approach")
}

func TestConsoleUI_EscClosesPickerMidGame(t *testing.T) {
	m := startGame(t)

	m = update(t, m, runes("t"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showCharacterModal)
	assert.False(t, m.showQuitModal)
}

func TestConsoleUI_QuitModal(t *testing.T) {
	m := startGame(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "Quit?")

	m = update(t, m, runes("n"))
	assert.False(t, m.showQuitModal)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	_, cmd := m.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConsoleUI_CreateError(t *testing.T) {
	m := newTestUI(t)
	m = update(t, m, charactersLoadedMsg{characters: []engine.CharacterSummary{{CharacterID: "ghost", Name: "Ghost"}}})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, next.(ConsoleUI), cmd())

	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "Character not found")
	assert.True(t, m.showCharacterModal)
	assert.Nil(t, m.turn)
}

func TestConsoleUI_PivotalNodeIsMarked(t *testing.T) {
	m := NewConsoleUI(&ConsoleConfig{PlayerID: "tester"}, nil)
	m.applyTurn(&engine.Turn{
		GameID: uuid.New(),
		Node:   engine.NodeView{NodeID: "samuel_past", Speaker: "Samuel", Text: "There were others.", Tags: []string{dialogue.TagPivotal}},
	}, "Tell me about them.")
	m.applyTurn(&engine.Turn{
		GameID: uuid.New(),
		Node:   engine.NodeView{NodeID: "samuel_intro", Speaker: "Samuel", Text: "Evening."},
	}, "")

	require.Len(t, m.transcript, 3)
	assert.True(t, m.transcript[0].player)
	assert.True(t, m.transcript[1].pivotal)
	assert.False(t, m.transcript[2].pivotal)
	assert.Contains(t, formatEntry(m.transcript[1], 60), "There were others.")
}

func TestRenderChoices(t *testing.T) {
	turn := &engine.Turn{
		GameID: uuid.New(),
		Choices: []engine.ChoiceView{
			{ChoiceID: "a", Text: "Ask about the trains", Enabled: true},
			{ChoiceID: "b", Text: "Fix the signal", ReasonCode: dialogue.ReasonConditionNotMet, Reason: "Requires: knows_station"},
			{ChoiceID: "c", Text: "Wave", ReasonCode: dialogue.ReasonConditionNotMet},
		},
	}

	out := renderChoices(turn, 0, 60)
	assert.Contains(t, out, "1. Ask about the trains")
	assert.Contains(t, out, "2. Fix the signal")
	assert.Contains(t, out, "(Requires: knows_station)")
	assert.Contains(t, out, "(condition_not_met)")

	turn.Ended = true
	assert.Contains(t, renderChoices(turn, 0, 60), "conversation has ended")
	assert.Empty(t, renderChoices(nil, 0, 60))
}

func TestRelationshipLabel(t *testing.T) {
	tests := map[string]string{
		"":             "Unknown",
		"stranger":     "Stranger",
		"acquaintance": "Acquaintance",
		"confidant":    "Confidant",
	}
	for in, want := range tests {
		t.Run(want, func(t *testing.T) {
			assert.Equal(t, want, relationshipLabel(in))
		})
	}
}
