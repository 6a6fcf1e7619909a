package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simon/jobmux/internal/mux"
	"github.com/simon/jobmux/internal/tmux"
)

const pollInterval = 1500 * time.Millisecond

type tickMsg time.Time

type windowsMsg []tmux.WindowInfo

// actionDoneMsg reports the outcome of a /new or /run command.
type actionDoneMsg struct {
	Status string
	Err    error
}

type confirmAction struct {
	Name  string
	Index int
}

type Model struct {
	conn          *mux.Connector
	sess          *mux.Session
	windows       []tmux.WindowInfo
	filtered      []tmux.WindowInfo
	cursor        int
	scrollOffset  int
	input         textinput.Model
	confirmKill   *confirmAction
	width, height int
	AttachTarget  string // set when user confirms attach
	status        string
	quitting      bool
	err           error
	now           func() time.Time
}

func NewModel(conn *mux.Connector, sess *mux.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter or enter command..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	return Model{
		conn:  conn,
		sess:  sess,
		input: ti,
		now:   time.Now,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshWindows, tickCmd())
}

func (m Model) refreshWindows() tea.Msg {
	windows, err := m.sess.Windows()
	if err != nil {
		return err
	}
	return windowsMsg(windows)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case windowsMsg:
		m.windows = msg
		m.err = nil
		m.applyFilter()
		return m, nil

	case actionDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.status = msg.Status
		return m, m.refreshWindows

	case error:
		m.err = msg
		return m, nil

	case tickMsg:
		return m, tea.Batch(tickCmd(), m.refreshWindows)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.CtrlC) {
		m.quitting = true
		return m, tea.Quit
	}

	if key.Matches(msg, keys.Escape) {
		if m.confirmKill != nil {
			m.confirmKill = nil
			return m, nil
		}
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
		m.input.SetValue("")
		m.applyFilter()
		return m, nil
	}

	// If kill confirmation is pending, only Enter proceeds
	if m.confirmKill != nil {
		if key.Matches(msg, keys.Enter) {
			return m.executeKill()
		}
		m.confirmKill = nil
		return m, nil
	}

	if key.Matches(msg, keys.Kill) {
		if sel := m.selectedWindow(); sel != nil {
			m.confirmKill = &confirmAction{Name: sel.Name, Index: sel.Index}
		}
		return m, nil
	}

	// q quits only when input is empty
	if key.Matches(msg, keys.Quit) && m.input.Value() == "" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.input.Value() == "" {
		if key.Matches(msg, keys.Up) {
			if m.cursor > 0 {
				m.cursor--
				m.ensureCursorVisible()
			}
			return m, nil
		}
		if key.Matches(msg, keys.Down) {
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				m.ensureCursorVisible()
			}
			return m, nil
		}
	}

	if key.Matches(msg, keys.Enter) {
		text := strings.TrimSpace(m.input.Value())
		if cmd := m.parseCommand(text); cmd != nil {
			m.input.SetValue("")
			m.applyFilter()
			return m, cmd
		}

		sel := m.selectedWindow()
		if sel == nil {
			return m, nil
		}
		m.AttachTarget = sel.Target()
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
	case tea.MouseButtonWheelDown:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
	}
	return m, nil
}

func (m Model) executeKill() (Model, tea.Cmd) {
	if m.confirmKill == nil {
		return m, nil
	}
	c := *m.confirmKill
	m.confirmKill = nil
	if err := m.sess.KillWindow(c.Index); err != nil {
		m.err = err
		return m, nil
	}
	m.status = fmt.Sprintf("killed %q", c.Name)
	return m, m.refreshWindows
}

// parseCommand turns "/new <name> [index]" and "/run <cmd>" into commands.
// Anything else is a filter query and yields nil.
func (m Model) parseCommand(text string) tea.Cmd {
	switch {
	case strings.HasPrefix(text, "/new "):
		parts := strings.Fields(text)
		if len(parts) < 2 {
			return nil
		}
		name := parts[1]
		var opts []mux.WindowOption
		if len(parts) >= 3 {
			idx, err := strconv.Atoi(parts[2])
			if err != nil {
				return errCmd(fmt.Errorf("invalid index %q", parts[2]))
			}
			opts = append(opts, mux.AtIndex(idx))
		}
		sess := m.sess
		return func() tea.Msg {
			w, err := sess.GetOrCreateWindow(name, opts...)
			if err != nil {
				return actionDoneMsg{Err: err}
			}
			return actionDoneMsg{Status: fmt.Sprintf("window %q at index %d", w.Name, w.Index)}
		}

	case strings.HasPrefix(text, "/run "):
		command := strings.TrimSpace(strings.TrimPrefix(text, "/run "))
		sel := m.selectedWindow()
		if sel == nil || command == "" {
			return nil
		}
		conn, session, target := m.conn, m.sess.Name(), *sel
		return func() tea.Msg {
			w, err := mux.NewWindow(conn, session, target.Name, mux.AtIndex(target.Index))
			if err == nil {
				err = w.Run(command)
			}
			if err != nil {
				return actionDoneMsg{Err: err}
			}
			return actionDoneMsg{Status: fmt.Sprintf("sent to %q", target.Name)}
		}
	}
	return nil
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return actionDoneMsg{Err: err} }
}

func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.input.Value())
	// Don't filter when typing a command (starts with /)
	if query == "" || strings.HasPrefix(query, "/") {
		m.filtered = m.windows
	} else {
		lower := strings.ToLower(query)
		m.filtered = nil
		for _, w := range m.windows {
			if strings.Contains(strings.ToLower(w.Name), lower) {
				m.filtered = append(m.filtered, w)
			}
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.ensureCursorVisible()
}

func (m Model) maxVisibleWindows() int {
	if m.height <= 0 {
		return len(m.filtered)
	}
	// title(2) + header(1) + indicators(2) + gap(1) + input(1) + help(1) + status(1)
	maxVis := m.height - 9
	if maxVis < 3 {
		maxVis = 3
	}
	if maxVis > len(m.filtered) {
		maxVis = len(m.filtered)
	}
	return maxVis
}

func (m *Model) ensureCursorVisible() {
	maxVis := m.maxVisibleWindows()
	if maxVis <= 0 {
		m.scrollOffset = 0
		return
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+maxVis {
		m.scrollOffset = m.cursor - maxVis + 1
	}
	maxOffset := len(m.filtered) - maxVis
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
}

func (m Model) selectedWindow() *tmux.WindowInfo {
	if len(m.filtered) == 0 {
		return nil
	}
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	w := m.filtered[m.cursor]
	return &w
}
