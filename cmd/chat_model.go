package cmd

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
	"github.com/iksnae/gamehelp/internal"
)

const chatHelp = "enter send • /new • /game <id> • /spoiler <level> • /sources • pgup/pgdn scroll • ctrl+c quit"

// answerMsg carries the outcome of an ask back into the update loop
type answerMsg struct {
	msg internal.ChatMessage
	err error
}

// chatModel is the interactive chat screen
type chatModel struct {
	ctx       context.Context
	ctrl      *internal.Controller
	catalog   *internal.GameCatalog
	developer bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width         int
	height        int
	ready         bool
	allSources    bool
	notice        string
	renderedCount int
	quitting      bool
}

func newChatModel(ctx context.Context, ctrl *internal.Controller, catalog *internal.GameCatalog, developer bool) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about the game… (/help for commands)"
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.SetValue(ctrl.Draft())
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return chatModel{
		ctx:       ctx,
		ctrl:      ctrl,
		catalog:   catalog,
		developer: developer,
		input:     ti,
		viewport:  viewport.New(defaultWrapWidth, 20),
		spinner:   sp,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetDraft(m.input.Value())
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case answerMsg:
		switch {
		case msg.err == nil:
			m.notice = ""
		case errors.Is(msg.err, internal.ErrThreadReset):
			m.notice = "Dropped an answer for a topic you already left"
		case errors.Is(msg.err, internal.ErrAskInFlight):
			m.notice = "Still waiting for the previous answer"
		case errors.Is(msg.err, internal.ErrEmptyQuery):
		default:
			internal.LogDebug("Ask failed: %v", msg.err)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if len(m.ctrl.Messages()) != m.renderedCount {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m *chatModel) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height

	// header (2) + error/notice (2) + input (1) + help (1) + spacing (2)
	vpHeight := height - 8
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4

	wrap := width - 4
	if wrap > 100 {
		wrap = 100
	}
	m.renderer = newMarkdownRenderer(wrap)
	m.ready = true
	m.refresh()
}

// submit handles the input line: slash commands act locally, anything else is asked
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		m.ctrl.SetDraft("")
		return m.runCommand(text)
	}

	m.ctrl.SetDraft(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.ctrl.Phase() == internal.PhaseSending {
		m.notice = "Still waiting for the previous answer"
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	ctrl, ctx := m.ctrl, m.ctx
	return m, func() tea.Msg {
		msg, err := ctrl.Submit(ctx)
		return answerMsg{msg: msg, err: err}
	}
}

func (m chatModel) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return m.quit()

	case "/new", "/reset":
		m.ctrl.ResetThread()
		m.notice = "Started a new topic"

	case "/game":
		if len(args) == 0 {
			ids := make([]string, 0)
			for _, g := range m.catalog.Games() {
				ids = append(ids, g.ID)
			}
			m.notice = "Games: " + strings.Join(ids, ", ")
			break
		}
		before := m.ctrl.Game()
		g, err := m.ctrl.SelectGame(args[0])
		switch {
		case err != nil:
			m.notice = err.Error()
		case g.ID == before.ID:
			m.notice = "Already on " + g.Label
		default:
			m.notice = fmt.Sprintf("Switched to %s. Started a new topic.", g.Label)
		}

	case "/spoiler", "/spoilers":
		if len(args) == 0 {
			m.notice = "Spoilers: " + m.ctrl.Spoiler().String()
			break
		}
		level, err := internal.ParseSpoiler(strings.Join(args, " "))
		if err != nil {
			m.notice = err.Error()
			break
		}
		level = m.ctrl.SetSpoiler(float64(level))
		m.notice = "Spoilers: " + level.Label()

	case "/sources":
		m.allSources = !m.allSources
		if m.allSources {
			m.notice = fmt.Sprintf("Showing up to %d sources per answer", internal.MaxDetailSources)
		} else {
			m.notice = fmt.Sprintf("Showing up to %d sources per answer", internal.MaxInlineSources)
		}

	case "/help":
		m.notice = chatHelp

	default:
		m.notice = fmt.Sprintf("Unknown command %s (try /help)", fields[0])
	}

	m.refresh()
	return m, nil
}

// refresh re-renders the log into the viewport and scrolls to the end
func (m *chatModel) refresh() {
	snap := m.ctrl.Snapshot()
	m.renderedCount = len(snap.Messages)
	m.viewport.SetContent(m.renderHistory(snap))
	m.viewport.GotoBottom()
}

func (m chatModel) renderHistory(snap internal.Snapshot) string {
	width := m.viewport.Width - 4
	if width <= 0 {
		width = defaultWrapWidth
	}
	if len(snap.Messages) == 0 {
		return metaStyle.Padding(1, 2).Render(fmt.Sprintf("Ask anything about %s. Spoilers: %s.", snap.Game.Label, snap.Spoiler.Label()))
	}

	limit := internal.MaxInlineSources
	if m.allSources {
		limit = internal.MaxDetailSources
	}

	parts := make([]string, 0, len(snap.Messages))
	total := len(snap.Messages)
	for i, msg := range snap.Messages {
		parts = append(parts, renderMessage(i+1, total, msg, m.renderer, width, limit))
	}
	return strings.Join(parts, "\n\n")
}

func (m chatModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading…"
	}

	snap := m.ctrl.Snapshot()
	accent := accentStyle(snap.Game)

	status := metaStyle.Render("Spoilers: " + snap.Spoiler.Label())
	if snap.ThreadID != "" {
		status += metaStyle.Render(" • Thread " + shortID(snap.ThreadID))
	} else {
		status += metaStyle.Render(" • New topic")
	}
	if snap.Phase == internal.PhaseSending {
		status += " " + m.spinner.View() + metaStyle.Render(" thinking…")
	}
	header := lipgloss.JoinVertical(lipgloss.Left, accent.Bold(true).Render("🎮 "+snap.Game.Label), status)

	var lines []string
	lines = append(lines, header, m.viewport.View())
	if snap.Err != nil {
		lines = append(lines, errorStyle.Render("⚠ "+describeError(snap.Err, m.developer)))
	}
	if m.notice != "" {
		lines = append(lines, infoStyle.Render(m.notice))
	}
	lines = append(lines, accent.Render(m.input.View()), metaStyle.Render(chatHelp))
	return strings.Join(lines, "\n")
}
