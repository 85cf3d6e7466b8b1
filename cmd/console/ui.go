package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

const playerName = "You"

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

var titleCaser = cases.Title(language.English)

// transcriptEntry is one line of the running conversation.
type transcriptEntry struct {
	speaker string
	text    string
	player  bool
	system  bool
	pivotal bool
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *apiClient
	turn         *engine.Turn
	transcript   []transcriptEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	selected     int
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	status       string

	// Character selection state
	showCharacterModal bool
	characters         []engine.CharacterSummary
	selectedCharacter  int
	loadingCharacters  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type charactersLoadedMsg struct {
	characters []engine.CharacterSummary
	err        error
}

// turnMsg carries the result of creating a game, choosing or talking.
type turnMsg struct {
	turn       *engine.Turn
	playerLine string
	err        error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	pivotalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")). // cream
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	lockedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Strikethrough(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *apiClient) ConsoleUI {
	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:             cfg,
		client:             client,
		chatViewport:       chatVp,
		metaViewport:       metaVp,
		showCharacterModal: true,
		loadingCharacters:  true,
	}
}

// relationshipLabel renders a relationship status for display.
func relationshipLabel(status string) string {
	if status == "" {
		return "Unknown"
	}
	return titleCaser.String(status)
}

func writeMetadata(turn *engine.Turn) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME STATE") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(turn.GameID.String()[:8] + "...\n\n")

	content.WriteString("Talking to:\n")
	content.WriteString(turn.CharacterID + "\n\n")

	content.WriteString("Relationship:\n")
	content.WriteString(fmt.Sprintf("%s (trust %+d)\n\n", relationshipLabel(turn.Relationship), turn.Trust))

	content.WriteString("Patterns:\n")
	p := turn.Patterns
	content.WriteString(fmt.Sprintf("• analytical %d\n", p.Analytical))
	content.WriteString(fmt.Sprintf("• patience   %d\n", p.Patience))
	content.WriteString(fmt.Sprintf("• exploring  %d\n", p.Exploring))
	content.WriteString(fmt.Sprintf("• helping    %d\n", p.Helping))
	content.WriteString(fmt.Sprintf("• building   %d\n\n", p.Building))

	content.WriteString("Resonance:\n")
	content.WriteString(fmt.Sprintf("%s, %d orbs\n", titleCaser.String(string(turn.Progress.CurrentTier)), turn.Resonance.TotalOrbs))
	if turn.Progress.NextTier != nil {
		content.WriteString(fmt.Sprintf("%d%% to %s\n", turn.Progress.Progress, *turn.Progress.NextTier))
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• ↑/↓, Enter: Choose\n")
	content.WriteString("• 1-9: Choose directly\n")
	content.WriteString("• t: Talk to someone\n")
	content.WriteString("• c: Copy game ID\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func formatEntry(e transcriptEntry, width int) string {
	switch {
	case e.system:
		return systemStyle.Render(wordwrap.String(e.text, width))
	case e.player:
		return playerStyle.Render(playerName+": ") + wordwrap.String(e.text, max(width-len(playerName)-2, 10))
	case e.pivotal:
		prefix := e.speaker + ": "
		return speakerStyle.Render(prefix) + pivotalStyle.Render(wordwrap.String(e.text, max(width-len(prefix), 10)))
	default:
		prefix := e.speaker + ": "
		return speakerStyle.Render(prefix) + wordwrap.String(e.text, max(width-len(prefix), 10))
	}
}

// renderChoices lists the visible choices, marking locked ones with their reason.
func renderChoices(turn *engine.Turn, selected, width int) string {
	if turn == nil {
		return ""
	}
	if turn.Ended {
		return promptStyle.Render("The conversation has ended. Press t to talk to someone else.")
	}

	var out strings.Builder
	for i, c := range turn.Choices {
		label := fmt.Sprintf("%d. %s", i+1, c.Text)
		switch {
		case !c.Enabled:
			reason := c.Reason
			if reason == "" {
				reason = string(c.ReasonCode)
			}
			out.WriteString(lockedChoiceStyle.Render(wordwrap.String(label, width)))
			out.WriteString(promptStyle.Render(" (" + reason + ")"))
		case i == selected:
			out.WriteString(selectedChoiceStyle.Render("▶ " + wordwrap.String(label, width-2)))
		default:
			out.WriteString(choiceStyle.Render("  " + wordwrap.String(label, width-2)))
		}
		out.WriteString("\n")
	}
	return out.String()
}

// writeChatContent rebuilds the transcript for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := max(m.chatViewport.Width-6, 20) // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, e := range m.transcript {
		content.WriteString(formatEntry(e, chatWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar() + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// applyTurn records a new turn in the transcript and resets the selection.
func (m *ConsoleUI) applyTurn(turn *engine.Turn, playerLine string) {
	if playerLine != "" {
		m.transcript = append(m.transcript, transcriptEntry{text: playerLine, player: true})
	}
	m.transcript = append(m.transcript, transcriptEntry{
		speaker: turn.Node.Speaker,
		text:    turn.Node.Text,
		pivotal: slices.Contains(turn.Node.Tags, dialogue.TagPivotal),
	})
	if turn.Node.Simulation != nil {
		m.transcript = append(m.transcript, transcriptEntry{
			system: true,
			text:   fmt.Sprintf("[Simulation: phase %d, %s]", turn.Node.Simulation.Phase, turn.Node.Simulation.Difficulty),
		})
	}
	if tier := turn.Resonance.TierJustUnlocked; tier != nil {
		m.transcript = append(m.transcript, transcriptEntry{
			system: true,
			text:   fmt.Sprintf("Your resonance deepens: %s.", titleCaser.String(string(*tier))),
		})
	}

	m.turn = turn
	m.selected = firstEnabled(turn)
	m.metaViewport.SetContent(writeMetadata(turn))
}

func firstEnabled(turn *engine.Turn) int {
	for i, c := range turn.Choices {
		if c.Enabled {
			return i
		}
	}
	return 0
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 12
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadCharacters()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle character modal first
	if m.showCharacterModal && !m.showQuitModal {
		return m.updateCharacterModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			m.moveSelection(-1)
			return m, nil
		case tea.KeyDown:
			m.moveSelection(1)
			return m, nil
		case tea.KeyEnter:
			return m.chooseIndex(m.selected)
		}

		switch key := msg.String(); key {
		case "t":
			m.showCharacterModal = true
			m.selectedCharacter = 0
			m.status = ""
			return m, nil
		case "c":
			if m.turn == nil {
				return m, nil
			}
			if err := clipboardWriteAll(m.turn.GameID.String()); err != nil {
				m.status = "Failed to copy game ID"
			} else {
				m.status = "Copied game ID to clipboard"
			}
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.chooseIndex(int(key[0] - '1'))
		}

	case turnMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = ""
			m.applyTurn(msg.turn, msg.playerLine)
		}
		m.writeChatContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
		return m, nil
	}

	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) moveSelection(delta int) {
	if m.turn == nil || len(m.turn.Choices) == 0 {
		return
	}
	n := len(m.turn.Choices)
	m.selected = (m.selected + delta + n) % n
}

// chooseIndex submits the i-th visible choice if it is enabled.
func (m ConsoleUI) chooseIndex(i int) (tea.Model, tea.Cmd) {
	if m.turn == nil || i < 0 || i >= len(m.turn.Choices) {
		return m, nil
	}
	choice := m.turn.Choices[i]
	if !choice.Enabled {
		m.status = fmt.Sprintf("Locked: %s", choice.Reason)
		return m, nil
	}

	m.selected = i
	m.loading = true
	m.progressTick = 0
	m.err = nil
	m.writeChatContent()
	return m, tea.Batch(m.sendChoice(choice), progressTick())
}

func (m ConsoleUI) sendChoice(choice engine.ChoiceView) tea.Cmd {
	gameID := m.turn.GameID
	return func() tea.Msg {
		turn, err := m.client.choose(gameID, choice.ChoiceID)
		return turnMsg{turn: turn, playerLine: choice.Text, err: err}
	}
}

func (m ConsoleUI) loadCharacters() tea.Cmd {
	return func() tea.Msg {
		chars, err := m.client.listCharacters()
		return charactersLoadedMsg{chars, err}
	}
}

// startConversation creates a game on first use and talks to characterID afterwards.
func (m ConsoleUI) startConversation(characterID string) tea.Cmd {
	if m.turn == nil {
		playerID := m.config.PlayerID
		return func() tea.Msg {
			turn, err := m.client.createGame(playerID, characterID)
			return turnMsg{turn: turn, err: err}
		}
	}
	gameID := m.turn.GameID
	return func() tea.Msg {
		turn, err := m.client.talk(gameID, characterID)
		if err == nil {
			return turnMsg{turn: turn, playerLine: "(You approach " + turn.Node.Speaker + ".)"}
		}
		return turnMsg{err: err}
	}
}

func (m ConsoleUI) updateCharacterModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case charactersLoadedMsg:
		m.loadingCharacters = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.characters = msg.characters
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.showCharacterModal = false
		m.applyTurn(msg.turn, msg.playerLine)
		if m.width > 0 && m.height > 0 {
			m.resize()
			m.ready = true
		}
		m.writeChatContent()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.showQuitModal = true
			return m, nil
		}
		if m.loadingCharacters || m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			if m.turn != nil {
				// Back to the current conversation
				m.showCharacterModal = false
				return m, nil
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCharacter > 0 {
				m.selectedCharacter--
			}
		case tea.KeyDown:
			if m.selectedCharacter < len(m.characters)-1 {
				m.selectedCharacter++
			}
		case tea.KeyEnter:
			if len(m.characters) > 0 {
				m.loading = true
				return m, m.startConversation(m.characters[m.selectedCharacter].CharacterID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCharacterModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingCharacters:
		content.WriteString(modalTitleStyle.Render("Loading Characters..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch who is around..."))
	case m.err != nil && len(m.characters) == 0:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load characters: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Conversation..."))
	default:
		content.WriteString(modalTitleStyle.Render("Who do you want to talk to?"))
		content.WriteString("\n\n")

		for i, c := range m.characters {
			line := fmt.Sprintf("%s (%d nodes)", c.Name, c.NodeCount)
			if i == m.selectedCharacter {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
			} else {
				content.WriteString(modalItemStyle.Render("  " + line))
			}
			content.WriteString("\n")
		}

		if m.err != nil {
			content.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to go back"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showCharacterModal {
		return m.renderCharacterModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	footer := renderChoices(m.turn, m.selected, chatWidth-6)
	if m.status != "" {
		footer += "\n" + promptStyle.Render(m.status)
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"", // Add empty line for spacing
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			footer,
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	usable = min(max(usable, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
