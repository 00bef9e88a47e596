// Package tui provides a Bubble Tea terminal UI over a play session.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nathoo/talecraft/session"
)

// rawLine stores an unstyled output line so it can be re-wrapped and
// re-styled when the terminal is resized.
type rawLine struct {
	line    session.Line
	isInput bool
}

// Model is the Bubble Tea model for a play session.
type Model struct {
	session *session.Session
	ctx     context.Context
	resume  bool

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	quitting bool
}

// gameOutputMsg carries session output into the Update loop.
type gameOutputMsg struct {
	input string // echoed player input, empty for the opening
	lines []session.Line
}

// New creates a TUI model over s. When resume is set the opening is
// skipped and the current state is shown instead.
func New(ctx context.Context, s *session.Session, resume bool) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		session: s,
		ctx:     ctx,
		resume:  resume,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program and blocks until the player quits or
// ctx is cancelled.
func Run(ctx context.Context, s *session.Session, resume bool) error {
	m := New(ctx, s, resume)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init returns the command that produces the opening output.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	s, resume := m.session, m.resume
	return func() tea.Msg {
		if resume {
			return gameOutputMsg{lines: s.Resume().Lines}
		}
		return gameOutputMsg{lines: s.Begin().Lines}
	}
}

// Update handles key presses, window resizes and session output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // status bar + input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

// handleEnter submits the input line. Empty input is meaningful: it
// continues a scene that is waiting on the player.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.history.Push(input)
	m.history.ResetCursor()

	res := m.session.Step(m.ctx, input)
	m = m.appendOutput(gameOutputMsg{input: input, lines: res.Lines})
	if res.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// appendOutput adds a turn to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{line: session.Line{Text: msg.input}, isInput: true})
	}
	for _, l := range msg.lines {
		m.rawLines = append(m.rawLines, rawLine{line: l})
	}
	// Blank separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles the transcript at the current
// width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.styledLines(), "\n"))
	m.viewport.GotoBottom()
}

func (m Model) styledLines() []string {
	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		text := rl.line.Text
		if text == "" && !rl.isInput {
			styled = append(styled, "")
			continue
		}
		if rl.isInput {
			styled = append(styled, styledPlayerInput(wordwrap.String(text, width-2)))
			continue
		}
		styled = append(styled, renderLine(wordwrap.String(text, width-decoration(rl.line.Kind)), rl.line.Kind))
	}
	return styled
}

// decoration is the number of columns a kind's style adds around its text.
func decoration(kind session.Kind) int {
	switch kind {
	case session.KindChoice, session.KindSystem:
		return 2
	default:
		return 0
	}
}

// View renders the viewport, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled, since
// those keys drive the input history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
