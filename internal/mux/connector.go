package mux

import (
	"time"

	"github.com/simon/jobmux/internal/tmux"
)

// Connector is a handle to one tmux server. It is passed explicitly to
// everything that needs the backend; there is no package-level client.
type Connector struct {
	exec   tmux.Executor
	report Reporter
	layout Layout
	now    func() time.Time
}

type Option func(*Connector)

// WithReporter sets the sink for transition reports.
func WithReporter(r Reporter) Option {
	return func(c *Connector) {
		if r != nil {
			c.report = r
		}
	}
}

// WithLayout overrides the index conventions. Zero fields keep their defaults.
func WithLayout(l Layout) Option {
	return func(c *Connector) {
		c.layout = l.withDefaults()
	}
}

func NewConnector(exec tmux.Executor, opts ...Option) *Connector {
	c := &Connector{
		exec:   exec,
		report: Discard,
		layout: DefaultLayout(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the conventions the connector applies.
func (c *Connector) Layout() Layout { return c.layout }

// Executor returns the backend the connector talks to.
func (c *Connector) Executor() tmux.Executor { return c.exec }

func (c *Connector) emit(t Transition) {
	t.Host = c.exec.HostName()
	t.At = c.now()
	c.report.Report(t)
}

// GetOrCreateSession looks a session up by exact name and creates it when
// absent. created reports whether this call created it.
func (c *Connector) GetOrCreateSession(name string) (s *Session, created bool, err error) {
	if err := validateSessionName(name); err != nil {
		return nil, false, opError("get-or-create session", name, "", -1, err)
	}

	exists, err := c.exec.HasSession(name)
	if err != nil {
		return nil, false, opError("get-or-create session", name, "", -1, err)
	}
	if !exists {
		if err := c.exec.NewSession(name); err != nil {
			return nil, false, opError("create session", name, "", -1, err)
		}
		created = true
		c.emit(Transition{Kind: SessionCreated, Session: name})
	}
	return &Session{name: name, conn: c}, created, nil
}

// LookupSession finds a session by exact name without creating it. ok is
// false when the session does not exist.
func (c *Connector) LookupSession(name string) (s *Session, ok bool, err error) {
	if err := validateSessionName(name); err != nil {
		return nil, false, opError("lookup session", name, "", -1, err)
	}
	exists, err := c.exec.HasSession(name)
	if err != nil {
		return nil, false, opError("lookup session", name, "", -1, err)
	}
	if !exists {
		return nil, false, nil
	}
	return &Session{name: name, conn: c}, true, nil
}

// OpenSession resolves a session, creating it if needed. A session created
// here has its default windows shifted up by the layout's ShiftDelta so
// that job windows can use the low indices.
func (c *Connector) OpenSession(name string) (*Session, error) {
	s, created, err := c.GetOrCreateSession(name)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.ShiftAllWindows(c.layout.ShiftDelta); err != nil {
			return nil, err
		}
	}
	return s, nil
}
