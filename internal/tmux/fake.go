package tmux

import (
	"fmt"
	"sync"
	"time"
)

// SentKeys records one SendKeys call observed by a FakeExecutor.
type SentKeys struct {
	Session string
	Index   int
	Window  string
	Text    string
}

type fakeSession struct {
	windows map[int]string
	active  int
}

// FakeExecutor is an in-memory tmux server for tests. It mirrors the tmux
// behaviors the core depends on: index collisions are errors, new sessions
// start with default windows, and killing the last window removes the
// session.
type FakeExecutor struct {
	mu             sync.Mutex
	host           string
	sessions       map[string]*fakeSession
	defaultWindows []string
	unreachable    bool
	sent           []SentKeys
	calls          []string
	now            func() time.Time
}

// NewFakeExecutor creates a fake whose new sessions contain a single
// default window named "bash" at index 0.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		sessions:       make(map[string]*fakeSession),
		defaultWindows: []string{"bash"},
		now:            time.Now,
	}
}

// SetHostName sets the value returned by HostName.
func (f *FakeExecutor) SetHostName(host string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.host = host
}

// SetDefaultWindows sets the windows, at indices 0..n-1, that new sessions start with.
func (f *FakeExecutor) SetDefaultWindows(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultWindows = names
}

// SetUnreachable makes every call fail with ErrUnreachable.
func (f *FakeExecutor) SetUnreachable(unreachable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreachable = unreachable
}

// AddWindow places a window directly, bypassing the executor API.
func (f *FakeExecutor) AddWindow(session, name string, index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[session]
	if !ok {
		s = &fakeSession{windows: make(map[int]string)}
		f.sessions[session] = s
	}
	s.windows[index] = name
}

// Sent returns a copy of all SendKeys calls so far.
func (f *FakeExecutor) Sent() []SentKeys {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentKeys(nil), f.sent...)
}

// Calls returns the names of executor methods invoked so far, in order.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// SessionCount returns the number of live sessions.
func (f *FakeExecutor) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// WindowMap returns name -> index for a session. Later duplicates of a
// name overwrite earlier ones.
func (f *FakeExecutor) WindowMap(session string) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]int)
	if s, ok := f.sessions[session]; ok {
		for idx, name := range s.windows {
			result[name] = idx
		}
	}
	return result
}

func (f *FakeExecutor) begin(call string) error {
	f.calls = append(f.calls, call)
	if f.unreachable {
		return fmt.Errorf("%w: fake server down", ErrUnreachable)
	}
	return nil
}

func (f *FakeExecutor) session(name string) (*fakeSession, error) {
	s, ok := f.sessions[name]
	if !ok {
		return nil, &CommandError{Args: []string{"-t", SessionTarget(name)}, Stderr: "can't find session: " + name}
	}
	return s, nil
}

func (f *FakeExecutor) HostName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.host
}

func (f *FakeExecutor) HasSession(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("HasSession"); err != nil {
		return false, err
	}
	_, ok := f.sessions[name]
	return ok, nil
}

func (f *FakeExecutor) NewSession(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("NewSession"); err != nil {
		return err
	}
	if _, ok := f.sessions[name]; ok {
		return &CommandError{Args: []string{"new-session", "-s", name}, Stderr: "duplicate session: " + name}
	}
	s := &fakeSession{windows: make(map[int]string)}
	for i, w := range f.defaultWindows {
		s.windows[i] = w
	}
	f.sessions[name] = s
	return nil
}

func (f *FakeExecutor) ListWindows(session string) ([]WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListWindows"); err != nil {
		return nil, err
	}
	s, err := f.session(session)
	if err != nil {
		return nil, err
	}
	windows := make([]WindowInfo, 0, len(s.windows))
	for idx, name := range s.windows {
		windows = append(windows, WindowInfo{
			Session:  session,
			Index:    idx,
			Name:     name,
			Active:   idx == s.active,
			Activity: f.now(),
		})
	}
	sortWindows(windows)
	return windows, nil
}

func (f *FakeExecutor) NewWindow(session, name string, index int) (WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("NewWindow"); err != nil {
		return WindowInfo{}, err
	}
	s, err := f.session(session)
	if err != nil {
		return WindowInfo{}, err
	}
	if index < 0 {
		index = 0
		for {
			if _, taken := s.windows[index]; !taken {
				break
			}
			index++
		}
	} else if _, taken := s.windows[index]; taken {
		return WindowInfo{}, &CommandError{
			Args:   []string{"new-window", "-t", WindowTarget(session, index)},
			Stderr: fmt.Sprintf("create window failed: index %d in use", index),
		}
	}
	s.windows[index] = name
	return WindowInfo{Session: session, Index: index, Name: name, Activity: f.now()}, nil
}

func (f *FakeExecutor) MoveWindow(session string, from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("MoveWindow"); err != nil {
		return err
	}
	s, err := f.session(session)
	if err != nil {
		return err
	}
	name, ok := s.windows[from]
	if !ok {
		return &CommandError{Args: []string{"move-window", "-s", WindowTarget(session, from)}, Stderr: fmt.Sprintf("can't find window: %d", from)}
	}
	if _, taken := s.windows[to]; taken && to != from {
		return &CommandError{Args: []string{"move-window", "-t", WindowTarget(session, to)}, Stderr: fmt.Sprintf("index in use: %d", to)}
	}
	delete(s.windows, from)
	s.windows[to] = name
	if s.active == from {
		s.active = to
	}
	return nil
}

func (f *FakeExecutor) KillWindow(session string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("KillWindow"); err != nil {
		return err
	}
	s, err := f.session(session)
	if err != nil {
		return err
	}
	if _, ok := s.windows[index]; !ok {
		return &CommandError{Args: []string{"kill-window", "-t", WindowTarget(session, index)}, Stderr: fmt.Sprintf("can't find window: %d", index)}
	}
	delete(s.windows, index)
	if len(s.windows) == 0 {
		delete(f.sessions, session)
	}
	return nil
}

func (f *FakeExecutor) SendKeys(session string, index int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SendKeys"); err != nil {
		return err
	}
	s, err := f.session(session)
	if err != nil {
		return err
	}
	name, ok := s.windows[index]
	if !ok {
		return &CommandError{Args: []string{"send-keys", "-t", WindowTarget(session, index)}, Stderr: fmt.Sprintf("can't find window: %d", index)}
	}
	f.sent = append(f.sent, SentKeys{Session: session, Index: index, Window: name, Text: text})
	return nil
}

func (f *FakeExecutor) AttachSession(target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begin("AttachSession")
}
