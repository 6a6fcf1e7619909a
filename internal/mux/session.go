package mux

import (
	"errors"
	"fmt"
	"sort"

	"github.com/simon/jobmux/internal/tmux"
)

// ErrLastWindow is returned when killing a window would destroy its session.
var ErrLastWindow = errors.New("refusing to kill the last window of a session")

// Session is a named tmux session. The tmux server owns its lifetime; the
// handle only carries the name and the connector.
type Session struct {
	name string
	conn *Connector
}

func (s *Session) Name() string { return s.name }

// Windows lists the session's windows ordered by index.
func (s *Session) Windows() ([]tmux.WindowInfo, error) {
	windows, err := s.conn.exec.ListWindows(s.name)
	if err != nil {
		return nil, opError("list windows", s.name, "", -1, err)
	}
	return windows, nil
}

type windowConfig struct {
	index    int
	hasIndex bool
}

// WindowOption configures window lookup and creation.
type WindowOption func(*windowConfig)

// AtIndex requests a specific window index.
func AtIndex(index int) WindowOption {
	return func(c *windowConfig) {
		c.index = index
		c.hasIndex = true
	}
}

func newWindowConfig(opts []WindowOption) windowConfig {
	cfg := windowConfig{index: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c windowConfig) validate() error {
	if c.hasIndex {
		return validateIndex(c.index)
	}
	return nil
}

func findByName(windows []tmux.WindowInfo, name string) (tmux.WindowInfo, bool) {
	for _, w := range windows {
		if w.Name == name {
			return w, true
		}
	}
	return tmux.WindowInfo{}, false
}

// GetOrCreateWindow returns the first window called name. When an index is
// requested and the window sits elsewhere it is moved there; when no window
// has the name it is created at the index, or wherever tmux puts it.
func (s *Session) GetOrCreateWindow(name string, opts ...WindowOption) (tmux.WindowInfo, error) {
	cfg := newWindowConfig(opts)
	if err := validateWindowName(name); err != nil {
		return tmux.WindowInfo{}, opError("get-or-create window", s.name, name, cfg.index, err)
	}
	if err := cfg.validate(); err != nil {
		return tmux.WindowInfo{}, opError("get-or-create window", s.name, name, cfg.index, err)
	}
	return s.getOrCreateWindow(name, cfg)
}

func (s *Session) getOrCreateWindow(name string, cfg windowConfig) (tmux.WindowInfo, error) {
	windows, err := s.Windows()
	if err != nil {
		return tmux.WindowInfo{}, err
	}

	if w, ok := findByName(windows, name); ok {
		if cfg.hasIndex && w.Index != cfg.index {
			if err := s.moveWindow(w, cfg.index); err != nil {
				return tmux.WindowInfo{}, err
			}
			w.Index = cfg.index
		}
		return w, nil
	}

	w, err := s.conn.exec.NewWindow(s.name, name, cfg.index)
	if err != nil {
		return tmux.WindowInfo{}, opError("create window", s.name, name, cfg.index, err)
	}
	s.conn.emit(Transition{Kind: WindowCreated, Session: s.name, Window: w.Name, To: w.Index})
	return w, nil
}

func (s *Session) moveWindow(w tmux.WindowInfo, to int) error {
	if err := s.conn.exec.MoveWindow(s.name, w.Index, to); err != nil {
		return opError("move window", s.name, w.Name, to, err)
	}
	s.conn.emit(Transition{Kind: WindowMoved, Session: s.name, Window: w.Name, From: w.Index, To: to})
	return nil
}

// ShiftAllWindows adds delta to the index of every window. Windows are moved
// in an order that keeps them from colliding with each other; delta must
// still be large enough to clear any other window the caller cares about.
func (s *Session) ShiftAllWindows(delta int) error {
	if delta == 0 {
		return nil
	}
	windows, err := s.Windows()
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.Index+delta < 0 {
			return opError("shift windows", s.name, w.Name, w.Index,
				fmt.Errorf("%w: shift by %d gives %d", ErrInvalidIndex, delta, w.Index+delta))
		}
	}

	// Moving up: highest index first. Moving down: lowest first.
	sort.Slice(windows, func(i, j int) bool {
		if delta > 0 {
			return windows[i].Index > windows[j].Index
		}
		return windows[i].Index < windows[j].Index
	})
	for _, w := range windows {
		if err := s.moveWindow(w, w.Index+delta); err != nil {
			return err
		}
	}
	return nil
}

// CloseWindows makes sure the sentinel window exists and kills every other
// window. With leaveSession false the sentinel goes too, and tmux removes
// the then empty session.
func (s *Session) CloseWindows(leaveSession bool) error {
	layout := s.conn.layout
	if err := s.ensureSentinel(); err != nil {
		return err
	}

	windows, err := s.Windows()
	if err != nil {
		return err
	}
	var sentinel *tmux.WindowInfo
	for i, w := range windows {
		if sentinel == nil && w.Name == layout.SentinelName && w.Index == layout.SentinelIndex {
			sentinel = &windows[i]
			continue
		}
		if err := s.killWindow(w); err != nil {
			return err
		}
	}

	if leaveSession || sentinel == nil {
		return nil
	}
	return s.killWindow(*sentinel)
}

// ensureSentinel creates the sentinel at its reserved index. A different
// window already holding that index is first moved above every other window.
func (s *Session) ensureSentinel() error {
	layout := s.conn.layout
	windows, err := s.Windows()
	if err != nil {
		return err
	}
	if w, ok := findByName(windows, layout.SentinelName); !ok || w.Index != layout.SentinelIndex {
		maxIndex := -1
		var occupant *tmux.WindowInfo
		for i, w := range windows {
			if w.Index > maxIndex {
				maxIndex = w.Index
			}
			if w.Index == layout.SentinelIndex {
				occupant = &windows[i]
			}
		}
		if occupant != nil {
			if err := s.moveWindow(*occupant, maxIndex+1); err != nil {
				return err
			}
		}
	}
	_, err = s.getOrCreateWindow(layout.SentinelName, windowConfig{index: layout.SentinelIndex, hasIndex: true})
	return err
}

func (s *Session) killWindow(w tmux.WindowInfo) error {
	if err := s.conn.exec.KillWindow(s.name, w.Index); err != nil {
		return opError("kill window", s.name, w.Name, w.Index, err)
	}
	s.conn.emit(Transition{Kind: WindowKilled, Session: s.name, Window: w.Name, From: w.Index})
	return nil
}

// KillWindow kills the window at index unless it is the last one left.
func (s *Session) KillWindow(index int) error {
	if err := validateIndex(index); err != nil {
		return opError("kill window", s.name, "", index, err)
	}
	windows, err := s.Windows()
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.Index != index {
			continue
		}
		if len(windows) == 1 {
			return opError("kill window", s.name, w.Name, index, ErrLastWindow)
		}
		return s.killWindow(w)
	}
	return opError("kill window", s.name, "", index, fmt.Errorf("no window at index %d", index))
}
