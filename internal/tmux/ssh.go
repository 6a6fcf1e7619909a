package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// sshConnectFailure is the exit status ssh uses for its own errors, as
// opposed to the exit status of the remote command.
const sshConnectFailure = 255

// SSHExecutor runs tmux commands on a remote host over SSH.
type SSHExecutor struct {
	Nickname string
	Host     string
	User     string
	SSHKey   string
}

func (s *SSHExecutor) HostName() string { return s.Nickname }

func (s *SSHExecutor) sshArgs() []string {
	args := []string{
		"-o", "ControlMaster=auto",
		"-o", "ControlPath=/tmp/jobmux-ssh-%r@%h:%p",
		"-o", "ControlPersist=60",
		"-o", "StrictHostKeyChecking=accept-new",
	}
	if s.SSHKey != "" {
		args = append(args, "-i", s.SSHKey)
	}
	if s.User != "" {
		args = append(args, fmt.Sprintf("%s@%s", s.User, s.Host))
	} else {
		args = append(args, s.Host)
	}
	return args
}

// run executes "tmux <args>" on the remote host with every argument quoted.
func (s *SSHExecutor) run(args ...string) (string, error) {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "tmux")
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	remoteCmd := strings.Join(quoted, " ")

	cmd := exec.Command("ssh", append(s.sshArgs(), remoteCmd)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() != sshConnectFailure {
			return "", &CommandError{Args: args, Stderr: stderr.String(), Err: err}
		}
		return "", fmt.Errorf("%w: ssh %s: %v %s", ErrUnreachable, s.Host, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (s *SSHExecutor) HasSession(name string) (bool, error) {
	_, err := s.run("has-session", "-t", SessionTarget(name))
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return false, nil
	}
	return false, err
}

func (s *SSHExecutor) NewSession(name string) error {
	_, err := s.run("new-session", "-d", "-s", name)
	return err
}

func (s *SSHExecutor) ListWindows(session string) ([]WindowInfo, error) {
	out, err := s.run("list-windows", "-t", SessionTarget(session), "-F", windowFormat)
	if err != nil {
		return nil, err
	}
	return parseWindowList(out, session), nil
}

func (s *SSHExecutor) NewWindow(session, name string, index int) (WindowInfo, error) {
	out, err := s.run(newWindowArgs(session, name, index)...)
	if err != nil {
		return WindowInfo{}, err
	}
	return parseWindowLine(out, session)
}

func (s *SSHExecutor) MoveWindow(session string, from, to int) error {
	_, err := s.run("move-window", "-s", WindowTarget(session, from), "-t", WindowTarget(session, to))
	return err
}

func (s *SSHExecutor) KillWindow(session string, index int) error {
	_, err := s.run("kill-window", "-t", WindowTarget(session, index))
	return err
}

// SendKeys sends the literal text, then Enter.
func (s *SSHExecutor) SendKeys(session string, index int, text string) error {
	target := WindowTarget(session, index)
	if _, err := s.run("send-keys", "-t", target, "-l", text); err != nil {
		return err
	}
	_, err := s.run("send-keys", "-t", target, "Enter")
	return err
}

func (s *SSHExecutor) AttachSession(target string) error {
	args := []string{"-t"}
	args = append(args, s.sshArgs()...)
	args = append(args, fmt.Sprintf("tmux attach-session -t %s", shellQuote(target)))
	cmd := exec.Command("ssh", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = filterTMUX(os.Environ())
	return cmd.Run()
}

// shellQuote wraps a string in single quotes, escaping any single quotes inside.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}
