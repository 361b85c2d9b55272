package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/export"
	"github.com/csheth/churnscout/internal/guide"
	"github.com/csheth/churnscout/internal/history"
	"github.com/csheth/churnscout/internal/render"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Context      context.Context
	Orchestrator *conversation.Orchestrator
	Logger       zerolog.Logger
	Endpoint     string
	HistoryPath  string
	ExportDir    string
	// SessionID names the history entry ctrl+s writes. Resumed sessions
	// pass the loaded snapshot ID so saving replaces it.
	SessionID string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	composer := textinput.New()
	composer.Placeholder = composerPlaceholder
	composer.Focus()
	composer.CharLimit = composerCharLimit
	composer.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	orch := config.Orchestrator
	if orch == nil {
		orch = conversation.New(conversation.Options{Logger: config.Logger})
	}
	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = history.NewSessionID()
	}

	return &model{
		config:        config,
		orch:          orch,
		logger:        config.Logger.With().Str("component", "tui").Logger(),
		stage:         stageIdle,
		layout:        newPageLayout(),
		composer:      composer,
		spinner:       spin,
		viewport:      vp,
		jobs:          newJobBus(config.Context, config.Logger),
		jobStates:     map[jobKind]jobSnapshot{},
		sessionID:     sessionID,
		toggles:       map[string]render.Toggles{},
		anchors:       map[string]int{},
		viewportDirty: true,
		infoMessage:   "Ask a question about a customer to begin.",
	}
}

type model struct {
	config Config
	orch   *conversation.Orchestrator
	logger zerolog.Logger
	stage  stage
	layout pageLayout

	composer textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer

	jobs      *jobBus
	jobStates map[jobKind]jobSnapshot
	sessionID string

	toggles       map[string]render.Toggles
	focus         focusTarget
	focusActive   bool
	anchors       map[string]int
	viewportDirty bool
	followTail    bool
	scrollToTurn  string
	helpVisible   bool
	infoMessage   string
	errorMessage  string
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.markViewportDirty()
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.followTail = m.viewport.AtBottom()
		return m, cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.composer.Width = m.wrapWidth(4)
		m.markdown = nil
		m.markViewportDirty()
		return m, nil
	case jobSignalMsg:
		m.jobStates[msg.Snapshot.Kind] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.jobStates[msg.Snapshot.Kind] = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case queryResultMsg:
		return m.settle(msg.outcome)
	case historySavedMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Saving history failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Saved %d turn(s) to %s", msg.turns, msg.path)
		return m, nil
	case exportResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Export failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Exported conversation to %s", msg.path)
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		switch {
		case m.helpVisible:
			m.helpVisible = false
			m.markViewportDirty()
			return m, nil
		case m.focusActive:
			m.clearFocus()
			return m, nil
		default:
			return m, tea.Quit
		}
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyTab:
		m.moveFocus(1)
		return m, nil
	case tea.KeyShiftTab:
		m.moveFocus(-1)
		return m, nil
	case tea.KeySpace:
		if m.focusActive {
			m.toggleFocused()
			return m, nil
		}
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.refreshViewportIfDirty()
		m.viewport, cmd = m.viewport.Update(key)
		m.followTail = m.viewport.AtBottom()
		return m, cmd
	case tea.KeyCtrlS:
		return m, m.saveHistoryCmd()
	case tea.KeyCtrlE:
		return m, m.exportCmd()
	case tea.KeyCtrlL:
		m.clearConversation()
		return m, nil
	case tea.KeyRunes:
		if key.String() == "?" && strings.TrimSpace(m.composer.Value()) == "" {
			m.helpVisible = !m.helpVisible
			m.markViewportDirty()
			return m, nil
		}
	}

	if m.stage == stageLoading {
		return m, nil
	}
	if m.focusActive && (key.Type == tea.KeyRunes || key.Type == tea.KeySpace) {
		m.clearFocus()
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	m.orch.SetInput(m.composer.Value())
	return m, cmd
}

func (m *model) submit() (tea.Model, tea.Cmd) {
	if m.stage == stageLoading {
		m.infoMessage = "Still analyzing the previous question…"
		return m, nil
	}
	pending, err := m.orch.Submit(m.composer.Value())
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		m.infoMessage = "Type a question first."
		return m, nil
	case errors.Is(err, conversation.ErrConcurrentSubmission):
		m.infoMessage = "Still analyzing the previous question…"
		return m, nil
	case err != nil:
		m.errorMessage = err.Error()
		return m, nil
	}

	m.composer.SetValue("")
	m.composer.Placeholder = composerLoadingPlaceholder
	m.composer.Blur()
	m.stage = stageLoading
	m.helpVisible = false
	m.errorMessage = ""
	m.infoMessage = "Analyzing…"
	m.followTail = true
	m.markViewportDirty()
	return m, tea.Batch(m.jobs.Start(jobKindQuery, queryJob(m.orch, pending)), m.spinner.Tick)
}

func (m *model) settle(outcome conversation.Outcome) (tea.Model, tea.Cmd) {
	turn := m.orch.Settle(outcome)
	m.stage = stageIdle
	m.composer.Placeholder = composerPlaceholder
	cmd := m.composer.Focus()
	if turn.Failed {
		m.infoMessage = "The last request failed. Press Enter to send another."
	} else {
		m.infoMessage = previewText(turn.Content, statusPreviewLimit)
	}
	m.errorMessage = ""
	m.followTail = false
	m.scrollToTurn = turn.ID
	m.markViewportDirty()
	return m, cmd
}

func (m *model) clearConversation() {
	if err := m.orch.Clear(); err != nil {
		m.infoMessage = "Wait for the current answer before clearing."
		return
	}
	m.composer.SetValue("")
	m.toggles = map[string]render.Toggles{}
	m.clearFocus()
	m.sessionID = history.NewSessionID()
	m.errorMessage = ""
	m.infoMessage = "Conversation cleared."
	m.followTail = false
	m.viewport.SetYOffset(0)
	m.markViewportDirty()
}

func (m *model) saveHistoryCmd() tea.Cmd {
	if m.config.HistoryPath == "" {
		m.errorMessage = "No history file configured."
		return nil
	}
	if !m.hasUserTurn() {
		m.infoMessage = "Nothing to save yet."
		return nil
	}
	snapshot := history.FromTurns(m.sessionID, m.config.Endpoint, m.orch.Store().Turns())
	m.infoMessage = "Saving conversation…"
	return m.jobs.Start(jobKindSave, saveHistoryJob(m.config.HistoryPath, snapshot))
}

func (m *model) exportCmd() tea.Cmd {
	if !m.hasUserTurn() {
		m.infoMessage = "Nothing to export yet."
		return nil
	}
	opts := export.Options{Endpoint: m.config.Endpoint}
	m.infoMessage = "Exporting conversation…"
	return m.jobs.Start(jobKindExport, exportJob(m.config.ExportDir, m.orch.Store().Turns(), opts))
}

func (m *model) hasUserTurn() bool {
	for _, turn := range m.orch.Store().Turns() {
		if turn.Role == conversation.RoleUser {
			return true
		}
	}
	return false
}

func (m *model) focusTargets() []focusTarget {
	var targets []focusTarget
	for _, turn := range m.orch.Store().Turns() {
		for _, id := range turnToggleIDs(turn) {
			targets = append(targets, focusTarget{TurnID: turn.ID, BlockID: id})
		}
	}
	return targets
}

func (m *model) moveFocus(delta int) {
	targets := m.focusTargets()
	if len(targets) == 0 {
		m.infoMessage = "Nothing to expand yet."
		return
	}
	current := -1
	if m.focusActive {
		for idx, target := range targets {
			if target == m.focus {
				current = idx
				break
			}
		}
	}
	var next int
	switch {
	case current < 0 && delta < 0:
		next = len(targets) - 1
	case current < 0:
		next = 0
	default:
		next = (current + delta + len(targets)) % len(targets)
	}
	m.focus = targets[next]
	m.focusActive = true
	m.followTail = false
	m.infoMessage = "Space opens or closes the highlighted section."
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	m.scrollToFocus()
}

func (m *model) toggleFocused() {
	if !m.focusActive {
		return
	}
	toggles := m.toggles[m.focus.TurnID]
	if toggles == nil {
		toggles = render.Toggles{}
		m.toggles[m.focus.TurnID] = toggles
	}
	toggles.Toggle(m.focus.BlockID)
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	m.scrollToFocus()
}

func (m *model) clearFocus() {
	m.focusActive = false
	m.focus = focusTarget{}
	m.markViewportDirty()
}

func (m *model) scrollToFocus() {
	line, ok := m.anchors[m.focus.key()]
	if !ok {
		return
	}
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
		return
	}
	lowerBound := m.viewport.YOffset + m.viewport.Height - 1
	if line > lowerBound {
		target := line - m.viewport.Height + 1
		if target < 0 {
			target = 0
		}
		m.viewport.SetYOffset(target)
	}
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	view := m.buildDisplayContent()
	m.anchors = view.anchors
	m.viewport.SetContent(view.content)
	if line, ok := view.anchors[turnAnchor(m.scrollToTurn)]; ok && m.scrollToTurn != "" {
		m.viewport.SetYOffset(line)
		m.scrollToTurn = ""
		m.followTail = m.viewport.AtBottom()
		return
	}
	if m.followTail {
		m.viewport.GotoBottom()
	}
}

func turnAnchor(turnID string) string {
	return "turn:" + turnID
}

func (m *model) buildDisplayContent() displayView {
	if m.helpVisible {
		return displayView{content: m.helpView(), anchors: map[string]int{}}
	}
	cb := &contentBuilder{}
	r := newDocRenderer(cb, m.wrapWidth(2))
	turns := m.orch.Store().Turns()
	for idx, turn := range turns {
		if idx > 0 {
			cb.WriteRune('\n')
		}
		r.anchors[turnAnchor(turn.ID)] = cb.Line()
		focus := ""
		if m.focusActive && m.focus.TurnID == turn.ID {
			focus = m.focus.BlockID
		}
		r.turn(turn, m.toggles[turn.ID], focus)
	}
	if m.stage == stageLoading {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(m.spinner.View() + " Analyzing…"))
		cb.WriteRune('\n')
	}
	if !m.hasUserTurn() {
		if cb.Line() > 0 {
			cb.WriteRune('\n')
		}
		cb.WriteString(m.renderMarkdown(guide.Markdown("")))
		cb.WriteRune('\n')
	}
	return displayView{content: cb.String(), anchors: r.anchors}
}

func (m *model) renderMarkdown(source string) string {
	if m.markdown == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(m.wrapWidth(2)),
		)
		if err != nil {
			m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
			return source
		}
		m.markdown = renderer
	}
	out, err := m.markdown.Render(source)
	if err != nil {
		m.logger.Warn().Err(err).Msg("render markdown")
		return source
	}
	return strings.Trim(out, "\n")
}

var (
	sectionHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffb347"))
	helperStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#9aa5b1"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")).Bold(true)
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ecae6"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	toggleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	linkStyle           = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#8ecae6"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#110600"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)

	severityColors = map[string]lipgloss.Color{
		string(render.SeverityLow):      lipgloss.Color("#2a9d8f"),
		string(render.SeverityMedium):   lipgloss.Color("#e9c46a"),
		string(render.SeverityHigh):     lipgloss.Color("#f4a261"),
		string(render.SeverityCritical): lipgloss.Color("#e63946"),
	}
	unknownSeverityColor = lipgloss.Color("#56526e")

	logoArtLines = []string{
		" ██████╗ ██╗  ██╗ ██╗   ██╗ ██████╗  ███╗   ██╗ ███████╗  ██████╗  ██████╗  ██╗   ██╗ ████████╗ ",
		"██╔════╝ ██║  ██║ ██║   ██║ ██╔══██╗ ████╗  ██║ ██╔════╝ ██╔════╝ ██╔═══██╗ ██║   ██║ ╚══██╔══╝ ",
		"██║      ███████║ ██║   ██║ ██████╔╝ ██╔██╗ ██║ ███████╗ ██║      ██║   ██║ ██║   ██║    ██║    ",
		"██║      ██╔══██║ ██║   ██║ ██╔══██╗ ██║╚██╗██║ ╚════██║ ██║      ██║   ██║ ██║   ██║    ██║    ",
		"╚██████╗ ██║  ██║ ╚██████╔╝ ██║  ██║ ██║ ╚████║ ███████║ ╚██████╗ ╚██████╔╝ ╚██████╔╝    ██║    ",
		" ╚═════╝ ╚═╝  ╚═╝  ╚═════╝  ╚═╝  ╚═╝ ╚═╝  ╚═══╝ ╚══════╝  ╚═════╝  ╚═════╝   ╚═════╝     ╚═╝    ",
	}
)

func severityColor(class string) lipgloss.Color {
	if color, ok := severityColors[class]; ok {
		return color
	}
	return unknownSeverityColor
}

func severityStyle(class string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(severityColor(class))
}

func badgeStyle(class string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#0f0f0f")).
		Background(severityColor(class)).
		Padding(0, 1)
}
