// Package mux addresses long-running jobs by session and window inside a
// tmux server, so a controller can launch, find again and tear down jobs
// without keeping bookkeeping of its own.
//
// Every operation is a single synchronous attempt against the backend. A
// missing session or window is not an error: it is created. There is no
// locking between controller processes; two controllers racing to create
// the same window may both succeed.
package mux

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultShiftDelta moves a new session's default windows out of the
	// low index range used by job windows.
	DefaultShiftDelta = 1000
	// DefaultSentinelIndex is where the window that keeps an otherwise
	// empty session alive lives.
	DefaultSentinelIndex = 100
	DefaultSentinelName  = "sentinel"
	DefaultIsolationVar  = "CUDA_VISIBLE_DEVICES"
)

var (
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidIndex = errors.New("invalid index")
)

var (
	// tmux rewrites '.' and ':' in session names, so sessions stay strict.
	validSessionName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// Windows are addressed by index; the name only has to survive a
	// "-n" argument and the '|' separated list-windows output.
	validWindowName = regexp.MustCompile(`^[^:\x00-\x1f\x7f]+$`)
)

// Layout holds the index conventions applied to every session.
type Layout struct {
	ShiftDelta    int
	SentinelIndex int
	SentinelName  string
	IsolationVar  string
}

// DefaultLayout returns the layout used when none is configured.
func DefaultLayout() Layout {
	return Layout{
		ShiftDelta:    DefaultShiftDelta,
		SentinelIndex: DefaultSentinelIndex,
		SentinelName:  DefaultSentinelName,
		IsolationVar:  DefaultIsolationVar,
	}
}

// withDefaults fills zero fields from DefaultLayout.
func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.ShiftDelta == 0 {
		l.ShiftDelta = d.ShiftDelta
	}
	if l.SentinelIndex == 0 {
		l.SentinelIndex = d.SentinelIndex
	}
	if l.SentinelName == "" {
		l.SentinelName = d.SentinelName
	}
	if l.IsolationVar == "" {
		l.IsolationVar = d.IsolationVar
	}
	return l
}

// OpError describes a failed operation and the session/window it targeted.
type OpError struct {
	Op      string
	Session string
	Window  string
	Index   int // -1 when no index is involved
	Err     error
}

func (e *OpError) Error() string {
	target := e.Session
	if e.Window != "" {
		target += fmt.Sprintf(" window %q", e.Window)
	}
	if e.Index >= 0 {
		target += fmt.Sprintf(" index %d", e.Index)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op, session, window string, index int, err error) error {
	return &OpError{Op: op, Session: session, Window: window, Index: index, Err: err}
}

func validateSessionName(name string) error {
	if !validSessionName.MatchString(name) {
		return fmt.Errorf("%w: session %q: use only alphanumeric, hyphens, underscores", ErrInvalidName, name)
	}
	return nil
}

func validateWindowName(name string) error {
	if strings.TrimSpace(name) == "" || !validWindowName.MatchString(name) {
		return fmt.Errorf("%w: window %q: must be non-empty without ':' or control characters", ErrInvalidName, name)
	}
	return nil
}

func validateIndex(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d is negative", ErrInvalidIndex, index)
	}
	return nil
}
