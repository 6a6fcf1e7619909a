package mux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon/jobmux/internal/tmux"
)

type recorder struct {
	transitions []Transition
}

func (r *recorder) Report(t Transition) { r.transitions = append(r.transitions, t) }

func (r *recorder) kinds() []TransitionKind {
	kinds := make([]TransitionKind, 0, len(r.transitions))
	for _, t := range r.transitions {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}

func newTestConnector(t *testing.T, opts ...Option) (*Connector, *tmux.FakeExecutor, *recorder) {
	t.Helper()
	fake := tmux.NewFakeExecutor()
	rec := &recorder{}
	opts = append([]Option{WithReporter(rec)}, opts...)
	return NewConnector(fake, opts...), fake, rec
}

func TestGetOrCreateSessionIsIdempotent(t *testing.T) {
	conn, fake, _ := newTestConnector(t)

	first, created, err := conn.GetOrCreateSession("X")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := conn.GetOrCreateSession("X")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.Name(), second.Name())
	assert.Equal(t, 1, fake.SessionCount())
}

func TestShiftAllWindows(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	fake.SetDefaultWindows("bash", "logs")

	s, created, err := conn.GetOrCreateSession("train")
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, s.ShiftAllWindows(100))
	assert.Equal(t, map[string]int{"bash": 100, "logs": 101}, fake.WindowMap("train"))

	for i := 0; i < 100; i += 33 {
		_, err := s.GetOrCreateWindow(GPUWindowName(i), AtIndex(i))
		require.NoError(t, err)
	}
	assert.Len(t, fake.WindowMap("train"), 6)
}

func TestShiftAllWindowsAdjacentIndexes(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	fake.AddWindow("s", "a", 0)
	fake.AddWindow("s", "b", 1)
	fake.AddWindow("s", "c", 2)

	s, _, err := conn.GetOrCreateSession("s")
	require.NoError(t, err)

	require.NoError(t, s.ShiftAllWindows(1))
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, fake.WindowMap("s"))

	require.NoError(t, s.ShiftAllWindows(-1))
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, fake.WindowMap("s"))

	err = s.ShiftAllWindows(-1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestOpenSessionShiftsOnlyOnCreation(t *testing.T) {
	conn, fake, rec := newTestConnector(t, WithLayout(Layout{ShiftDelta: 100}))
	fake.SetDefaultWindows("bash", "logs")

	_, err := conn.OpenSession("train")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"bash": 100, "logs": 101}, fake.WindowMap("train"))

	_, err = conn.OpenSession("train")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"bash": 100, "logs": 101}, fake.WindowMap("train"))
	assert.Equal(t, []TransitionKind{SessionCreated, WindowMoved, WindowMoved}, rec.kinds())
}

func TestGetOrCreateWindowMovesOnMismatch(t *testing.T) {
	conn, _, rec := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	_, err = s.GetOrCreateWindow("job", AtIndex(3))
	require.NoError(t, err)

	w, err := s.GetOrCreateWindow("job", AtIndex(5))
	require.NoError(t, err)
	assert.Equal(t, 5, w.Index)

	windows, err := s.Windows()
	require.NoError(t, err)
	count := 0
	for _, win := range windows {
		if win.Name == "job" {
			count++
			assert.Equal(t, 5, win.Index)
		}
	}
	assert.Equal(t, 1, count)

	last := rec.transitions[len(rec.transitions)-1]
	assert.Equal(t, WindowMoved, last.Kind)
	assert.Equal(t, 3, last.From)
	assert.Equal(t, 5, last.To)
}

func TestGetOrCreateWindowWithoutIndexKeepsPosition(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)

	created, err := s.GetOrCreateWindow("notes")
	require.NoError(t, err)
	assert.Equal(t, 0, created.Index)

	again, err := s.GetOrCreateWindow("notes")
	require.NoError(t, err)
	assert.Equal(t, created.Index, again.Index)
	assert.Len(t, fake.WindowMap("s"), 2)
}

func TestGetOrCreateWindowFirstMatchWins(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	fake.AddWindow("s", "dup", 4)
	fake.AddWindow("s", "dup", 2)

	s, _, err := conn.GetOrCreateSession("s")
	require.NoError(t, err)
	w, err := s.GetOrCreateWindow("dup")
	require.NoError(t, err)
	assert.Equal(t, 2, w.Index)
}

func TestInvalidInputRejectedBeforeBackend(t *testing.T) {
	conn, fake, _ := newTestConnector(t)

	_, _, err := conn.GetOrCreateSession("")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = conn.GetOrCreateSession("bad:name")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewWindow(conn, "s", "job", AtIndex(-2))
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = NewWindow(conn, "s", "", AtIndex(1))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewGPUWindow(conn, "s", -1)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	assert.Empty(t, fake.Calls())
}

func TestNameValidation(t *testing.T) {
	tests := []struct {
		name    string
		session bool
		ok      bool
	}{
		{name: "train.v2", ok: true},
		{name: "job 1", ok: true},
		{name: "gpu-0", ok: true},
		{name: "", ok: false},
		{name: "   ", ok: false},
		{name: "a:b", ok: false},
		{name: "a\nb", ok: false},
		{name: "train_1", session: true, ok: true},
		{name: "train.v2", session: true, ok: false},
		{name: "job 1", session: true, ok: false},
	}
	for _, tt := range tests {
		var err error
		if tt.session {
			err = validateSessionName(tt.name)
		} else {
			err = validateWindowName(tt.name)
		}
		if tt.ok {
			assert.NoError(t, err, "%q", tt.name)
		} else {
			assert.ErrorIs(t, err, ErrInvalidName, "%q", tt.name)
		}
	}
}

func TestWindowNameWithDotAndSpace(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	w, err := NewWindow(conn, "s", "train.v2 run", AtIndex(3))
	require.NoError(t, err)
	require.NoError(t, w.Run("make"))
	assert.Equal(t, 3, fake.WindowMap("s")["train.v2 run"])
}

func TestLookupSessionNeverCreates(t *testing.T) {
	conn, fake, rec := newTestConnector(t)

	_, _, err := conn.LookupSession("bad:name")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Empty(t, fake.Calls())

	s, ok, err := conn.LookupSession("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Equal(t, 0, fake.SessionCount())

	_, err = conn.OpenSession("there")
	require.NoError(t, err)
	s, ok, err = conn.LookupSession("there")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "there", s.Name())
	assert.Equal(t, SessionCreated, rec.transitions[0].Kind)
}

func TestUnreachableBackendIsFatal(t *testing.T) {
	conn, fake, rec := newTestConnector(t)
	fake.SetUnreachable(true)

	_, err := NewWindow(conn, "s", "job")
	require.Error(t, err)
	assert.ErrorIs(t, err, tmux.ErrUnreachable)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "s", opErr.Session)
	assert.Contains(t, err.Error(), "get-or-create session s")

	assert.Equal(t, []string{"HasSession"}, fake.Calls())
	assert.Empty(t, rec.transitions)
}

func TestCloseWindowsLeavesOnlySentinel(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	for _, name := range []string{"job-0", "job-1"} {
		_, err := s.GetOrCreateWindow(name)
		require.NoError(t, err)
	}

	require.NoError(t, s.CloseWindows(true))
	assert.Equal(t, map[string]int{DefaultSentinelName: DefaultSentinelIndex}, fake.WindowMap("s"))

	ok, err := fake.HasSession("s")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.CloseWindows(true))
	assert.Equal(t, map[string]int{DefaultSentinelName: DefaultSentinelIndex}, fake.WindowMap("s"))
}

func TestCloseWindowsMovesOccupantOfReservedIndex(t *testing.T) {
	conn, fake, rec := newTestConnector(t, WithLayout(Layout{ShiftDelta: 100, SentinelIndex: 100}))
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"bash": 100}, fake.WindowMap("s"))

	require.NoError(t, s.CloseWindows(true))
	assert.Equal(t, map[string]int{"sentinel": 100}, fake.WindowMap("s"))

	var killed []string
	for _, tr := range rec.transitions {
		if tr.Kind == WindowKilled {
			killed = append(killed, tr.Window)
		}
	}
	assert.Equal(t, []string{"bash"}, killed)
}

func TestCloseWindowsKillsStraySentinels(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	fake.AddWindow("s", DefaultSentinelName, 7)
	fake.AddWindow("s", DefaultSentinelName, 8)

	require.NoError(t, s.CloseWindows(true))

	windows, err := s.Windows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, DefaultSentinelName, windows[0].Name)
	assert.Equal(t, DefaultSentinelIndex, windows[0].Index)
}

func TestCloseWindowsWithoutLeavingSessionDestroysIt(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	_, err = s.GetOrCreateWindow("job", AtIndex(0))
	require.NoError(t, err)

	require.NoError(t, s.CloseWindows(false))

	ok, err := fake.HasSession("s")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKillWindowKeepsLastWindow(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	s, err := conn.OpenSession("s")
	require.NoError(t, err)
	_, err = s.GetOrCreateWindow("job", AtIndex(1))
	require.NoError(t, err)

	require.NoError(t, s.KillWindow(1))
	err = s.KillWindow(DefaultShiftDelta)
	assert.ErrorIs(t, err, ErrLastWindow)

	err = s.KillWindow(42)
	assert.Error(t, err)
	assert.Equal(t, map[string]int{"bash": DefaultShiftDelta}, fake.WindowMap("s"))
}

func TestWindowRunAndMove(t *testing.T) {
	conn, fake, rec := newTestConnector(t)
	w, err := NewWindow(conn, "s", "job", AtIndex(3))
	require.NoError(t, err)

	require.NoError(t, w.Run("make train"))
	require.NoError(t, w.Move(7))

	idx, ok := w.Index()
	assert.True(t, ok)
	assert.Equal(t, 7, idx)

	require.NoError(t, w.Run("make eval"))
	assert.Equal(t, []tmux.SentKeys{
		{Session: "s", Index: 3, Window: "job", Text: "make train"},
		{Session: "s", Index: 7, Window: "job", Text: "make eval"},
	}, fake.Sent())

	assert.Contains(t, rec.kinds(), CommandSent)
	assert.ErrorIs(t, w.Move(-1), ErrInvalidIndex)
}

func TestWindowRunRecreatesMissingWindow(t *testing.T) {
	conn, fake, _ := newTestConnector(t)
	w, err := NewWindow(conn, "s", "job", AtIndex(2))
	require.NoError(t, err)
	require.NoError(t, fake.KillWindow("s", 2))

	require.NoError(t, w.Run("echo hi"))
	assert.Equal(t, 2, fake.WindowMap("s")["job"])
}

func TestGPUWindowAddressing(t *testing.T) {
	conn, fake, _ := newTestConnector(t)

	g, err := NewGPUWindow(conn, "train", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.GPU())
	assert.Equal(t, "gpu-2", g.Window().Name())

	require.NoError(t, g.Run("python train.py"))
	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "export CUDA_VISIBLE_DEVICES=2 && python train.py", sent[0].Text)
	assert.Equal(t, 2, sent[0].Index)
	assert.Equal(t, "gpu-2", sent[0].Window)
}

func TestGPUWindowCustomIsolationVar(t *testing.T) {
	conn, fake, _ := newTestConnector(t, WithLayout(Layout{IsolationVar: "HIP_VISIBLE_DEVICES"}))
	g, err := NewGPUWindow(conn, "train", 0)
	require.NoError(t, err)
	require.NoError(t, g.Run("./bench"))
	assert.Equal(t, "export HIP_VISIBLE_DEVICES=0 && ./bench", fake.Sent()[0].Text)
}

func TestGPUWindowsDeterministicUnderReordering(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		conn, fake, _ := newTestConnector(t)
		for _, gpu := range order {
			_, err := NewGPUWindow(conn, "train", gpu)
			require.NoError(t, err)
		}
		got := fake.WindowMap("train")
		delete(got, "bash")
		assert.Equal(t, map[string]int{"gpu-0": 0, "gpu-1": 1, "gpu-2": 2}, got, "order %v", order)
	}
}

func TestTransitionString(t *testing.T) {
	tests := []struct {
		tr   Transition
		want string
	}{
		{tr: Transition{Kind: SessionCreated, Session: "s"}, want: "[s] created session"},
		{tr: Transition{Kind: WindowCreated, Session: "s", Window: "gpu-1", To: 1}, want: `[s] created window "gpu-1" at index 1`},
		{tr: Transition{Kind: WindowMoved, Session: "s", Window: "w", From: 0, To: 1000}, want: `[s] moved window "w" from 0 to 1000`},
		{tr: Transition{Kind: WindowKilled, Host: "box", Session: "s", Window: "w", From: 4}, want: `[box:s] killed window "w" at index 4`},
		{tr: Transition{Kind: CommandSent, Session: "s", Window: "gpu-0", Command: "ls"}, want: "[s] gpu-0 $ ls"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tr.String())
	}
}

func TestMultiReporterAndHost(t *testing.T) {
	fake := tmux.NewFakeExecutor()
	fake.SetHostName("box")
	a, b := &recorder{}, &recorder{}
	conn := NewConnector(fake, WithReporter(MultiReporter{a, nil, b}))

	_, _, err := conn.GetOrCreateSession("s")
	require.NoError(t, err)
	require.Len(t, a.transitions, 1)
	assert.Equal(t, a.transitions, b.transitions)
	assert.Equal(t, "box", a.transitions[0].Host)
	assert.False(t, a.transitions[0].At.IsZero())
}
