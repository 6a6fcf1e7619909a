package mux

import "github.com/simon/jobmux/internal/tmux"

// Window is a named window in a session. The desired index is the caller's
// request; the actual index is whatever tmux reports on each lookup.
type Window struct {
	session *Session
	name    string
	cfg     windowConfig
}

// NewWindow resolves (or creates) the session, then resolves (or creates)
// the window in it.
func NewWindow(conn *Connector, sessionName, windowName string, opts ...WindowOption) (*Window, error) {
	cfg := newWindowConfig(opts)
	if err := validateWindowName(windowName); err != nil {
		return nil, opError("open window", sessionName, windowName, cfg.index, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, opError("open window", sessionName, windowName, cfg.index, err)
	}

	s, err := conn.OpenSession(sessionName)
	if err != nil {
		return nil, err
	}
	w := &Window{session: s, name: windowName, cfg: cfg}
	if _, err := w.resolve(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Window) Name() string { return w.name }

// Index returns the desired index and whether one was requested.
func (w *Window) Index() (int, bool) { return w.cfg.index, w.cfg.hasIndex }

func (w *Window) resolve() (tmux.WindowInfo, error) {
	return w.session.getOrCreateWindow(w.name, w.cfg)
}

// Info looks the window up again and returns what tmux reports.
func (w *Window) Info() (tmux.WindowInfo, error) {
	return w.resolve()
}

// Run types cmd into the window's active pane followed by Enter. It does not
// wait for or observe the command.
func (w *Window) Run(cmd string) error {
	info, err := w.resolve()
	if err != nil {
		return err
	}
	s := w.session
	if err := s.conn.exec.SendKeys(s.name, info.Index, cmd); err != nil {
		return opError("run", s.name, w.name, info.Index, err)
	}
	s.conn.emit(Transition{Kind: CommandSent, Session: s.name, Window: w.name, To: info.Index, Command: cmd})
	return nil
}

// Move relocates the window to index and makes index the desired index.
func (w *Window) Move(index int) error {
	if err := validateIndex(index); err != nil {
		return opError("move window", w.session.name, w.name, index, err)
	}
	info, err := w.resolve()
	if err != nil {
		return err
	}
	if info.Index != index {
		if err := w.session.moveWindow(info, index); err != nil {
			return err
		}
	}
	w.cfg = windowConfig{index: index, hasIndex: true}
	return nil
}
