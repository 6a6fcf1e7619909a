package tmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeNewSessionHasDefaultWindows(t *testing.T) {
	f := NewFakeExecutor()
	f.SetDefaultWindows("bash", "logs")

	ok, err := f.HasSession("train")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.NewSession("train"))
	assert.Error(t, f.NewSession("train"))

	windows, err := f.ListWindows("train")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "bash", windows[0].Name)
	assert.Equal(t, 1, windows[1].Index)
}

func TestFakeNewWindowIndexes(t *testing.T) {
	f := NewFakeExecutor()
	require.NoError(t, f.NewSession("s"))

	w, err := f.NewWindow("s", "a", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Index)

	w, err = f.NewWindow("s", "b", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Index)

	_, err = f.NewWindow("s", "c", 5)
	var cmdErr *CommandError
	assert.ErrorAs(t, err, &cmdErr)
}

func TestFakeKillLastWindowRemovesSession(t *testing.T) {
	f := NewFakeExecutor()
	require.NoError(t, f.NewSession("s"))
	require.NoError(t, f.KillWindow("s", 0))

	ok, err := f.HasSession("s")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, f.SessionCount())
}

func TestFakeMoveWindow(t *testing.T) {
	f := NewFakeExecutor()
	require.NoError(t, f.NewSession("s"))
	_, err := f.NewWindow("s", "job", 3)
	require.NoError(t, err)

	assert.Error(t, f.MoveWindow("s", 3, 0))
	require.NoError(t, f.MoveWindow("s", 3, 7))
	assert.Equal(t, map[string]int{"bash": 0, "job": 7}, f.WindowMap("s"))
}

func TestFakeSendKeys(t *testing.T) {
	f := NewFakeExecutor()
	require.NoError(t, f.NewSession("s"))
	require.NoError(t, f.SendKeys("s", 0, "ls -la"))
	assert.Error(t, f.SendKeys("s", 9, "ls"))

	assert.Equal(t, []SentKeys{{Session: "s", Index: 0, Window: "bash", Text: "ls -la"}}, f.Sent())
}

func TestFakeUnreachable(t *testing.T) {
	f := NewFakeExecutor()
	f.SetUnreachable(true)

	_, err := f.HasSession("s")
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, f.NewSession("s"), ErrUnreachable)
	assert.Equal(t, []string{"HasSession", "NewSession"}, f.Calls())
}
