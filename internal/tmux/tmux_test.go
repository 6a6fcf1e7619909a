package tmux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowList(t *testing.T) {
	output := "1|0|1700000100|editor\n0|1|1700000000|bash\n\nbogus line\n7|0|x|name|with|pipes\n"

	windows := parseWindowList(output, "train")

	require.Len(t, windows, 3)
	assert.Equal(t, 0, windows[0].Index)
	assert.Equal(t, "bash", windows[0].Name)
	assert.True(t, windows[0].Active)
	assert.Equal(t, int64(1700000000), windows[0].Activity.Unix())
	assert.Equal(t, 1, windows[1].Index)
	assert.False(t, windows[1].Active)
	assert.Equal(t, "name|with|pipes", windows[2].Name)
	for _, w := range windows {
		assert.Equal(t, "train", w.Session)
	}
}

func TestParseWindowListEmpty(t *testing.T) {
	assert.Empty(t, parseWindowList("", "s"))
	assert.Empty(t, parseWindowList("\n\n", "s"))
}

func TestParseWindowLine(t *testing.T) {
	w, err := parseWindowLine("3|0|1700000000|gpu-3\n", "train")
	require.NoError(t, err)
	assert.Equal(t, 3, w.Index)
	assert.Equal(t, "gpu-3", w.Name)

	_, err = parseWindowLine("", "train")
	assert.Error(t, err)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, "=train", SessionTarget("train"))
	assert.Equal(t, "=train:4", WindowTarget("train", 4))
	assert.Equal(t, "=train:0", WindowInfo{Session: "train", Index: 0}.Target())
}

func TestNewWindowArgs(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		target string
	}{
		{name: "explicit index", index: 2, target: "=train:2"},
		{name: "zero index", index: 0, target: "=train:0"},
		{name: "backend assigned", index: -1, target: "=train:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := newWindowArgs("train", "gpu-2", tt.index)
			assert.Equal(t, []string{"new-window", "-d", "-P", "-F", windowFormat, "-t", tt.target, "-n", "gpu-2"}, args)
		})
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "'plain'"},
		{in: "", want: "''"},
		{in: "it's", want: `'it'"'"'s'`},
		{in: "a && b", want: "'a && b'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in))
	}
}

func TestFilterTMUX(t *testing.T) {
	env := []string{"HOME=/root", "TMUX=/tmp/tmux-0/default,1,0", "TMUX_PANE=%1"}
	assert.Equal(t, []string{"HOME=/root", "TMUX_PANE=%1"}, filterTMUX(env))
}

func TestCommandError(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &CommandError{Args: []string{"kill-window", "-t", "=s:1"}, Stderr: "can't find window: 1\n", Err: inner}
	assert.Equal(t, "tmux kill-window -t =s:1: can't find window: 1", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := &CommandError{Args: []string{"ls"}, Err: inner}
	assert.Equal(t, "tmux ls: exit status 1", bare.Error())
}

func TestSSHExecutorArgs(t *testing.T) {
	s := &SSHExecutor{Nickname: "box", Host: "10.0.0.2", User: "ml", SSHKey: "/keys/id"}
	args := s.sshArgs()
	assert.Equal(t, "ml@10.0.0.2", args[len(args)-1])
	assert.Contains(t, args, "/keys/id")
	assert.Equal(t, "box", s.HostName())

	noUser := &SSHExecutor{Host: "gpu-node"}
	args = noUser.sshArgs()
	assert.Equal(t, "gpu-node", args[len(args)-1])
	assert.NotContains(t, args, "-i")
}
