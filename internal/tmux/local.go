package tmux

import (
	"errors"
	"fmt"
)

// LocalExecutor runs tmux commands on the local machine.
type LocalExecutor struct{}

func (l *LocalExecutor) HostName() string { return "" }

func (l *LocalExecutor) run(args ...string) (string, error) {
	tmuxBin, err := FindTmux()
	if err != nil {
		return "", fmt.Errorf("%w: tmux not found: %v", ErrUnreachable, err)
	}
	return runCommand(tmuxBin, args...)
}

// HasSession checks if a tmux session with exactly this name exists.
func (l *LocalExecutor) HasSession(name string) (bool, error) {
	_, err := l.run("has-session", "-t", SessionTarget(name))
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		// has-session only fails with an exit status when the session
		// (or the server) is not there.
		return false, nil
	}
	return false, err
}

func (l *LocalExecutor) NewSession(name string) error {
	_, err := l.run("new-session", "-d", "-s", name)
	return err
}

func (l *LocalExecutor) ListWindows(session string) ([]WindowInfo, error) {
	out, err := l.run("list-windows", "-t", SessionTarget(session), "-F", windowFormat)
	if err != nil {
		return nil, err
	}
	return parseWindowList(out, session), nil
}

func (l *LocalExecutor) NewWindow(session, name string, index int) (WindowInfo, error) {
	out, err := l.run(newWindowArgs(session, name, index)...)
	if err != nil {
		return WindowInfo{}, err
	}
	return parseWindowLine(out, session)
}

func (l *LocalExecutor) MoveWindow(session string, from, to int) error {
	_, err := l.run("move-window", "-s", WindowTarget(session, from), "-t", WindowTarget(session, to))
	return err
}

func (l *LocalExecutor) KillWindow(session string, index int) error {
	_, err := l.run("kill-window", "-t", WindowTarget(session, index))
	return err
}

// SendKeys sends text followed by Enter to a window's active pane.
// Uses -l flag for literal text (no key name interpretation), then
// sends Enter separately to submit.
func (l *LocalExecutor) SendKeys(session string, index int, text string) error {
	target := WindowTarget(session, index)
	if _, err := l.run("send-keys", "-t", target, "-l", text); err != nil {
		return err
	}
	_, err := l.run("send-keys", "-t", target, "Enter")
	return err
}

func (l *LocalExecutor) AttachSession(target string) error {
	return RunAttachSession(target)
}
