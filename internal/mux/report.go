package mux

import (
	"fmt"
	"time"
)

type TransitionKind string

const (
	SessionCreated TransitionKind = "session-created"
	WindowCreated  TransitionKind = "window-created"
	WindowMoved    TransitionKind = "window-moved"
	WindowKilled   TransitionKind = "window-killed"
	CommandSent    TransitionKind = "command-sent"
)

// Transition is a state change observed by the core. It is informational
// only; reporters must not influence control flow.
type Transition struct {
	Kind    TransitionKind
	Host    string
	Session string
	Window  string
	From    int
	To      int
	Command string
	At      time.Time
}

func (t Transition) String() string {
	prefix := "[" + t.Session + "]"
	if t.Host != "" {
		prefix = "[" + t.Host + ":" + t.Session + "]"
	}
	switch t.Kind {
	case SessionCreated:
		return fmt.Sprintf("%s created session", prefix)
	case WindowCreated:
		return fmt.Sprintf("%s created window %q at index %d", prefix, t.Window, t.To)
	case WindowMoved:
		return fmt.Sprintf("%s moved window %q from %d to %d", prefix, t.Window, t.From, t.To)
	case WindowKilled:
		return fmt.Sprintf("%s killed window %q at index %d", prefix, t.Window, t.From)
	case CommandSent:
		return fmt.Sprintf("%s %s $ %s", prefix, t.Window, t.Command)
	default:
		return fmt.Sprintf("%s %s", prefix, t.Kind)
	}
}

// Reporter receives every transition.
type Reporter interface {
	Report(t Transition)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(t Transition)

func (f ReporterFunc) Report(t Transition) { f(t) }

// MultiReporter fans a transition out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(t Transition) {
	for _, r := range m {
		if r != nil {
			r.Report(t)
		}
	}
}

// Discard drops every transition.
var Discard Reporter = ReporterFunc(func(Transition) {})
