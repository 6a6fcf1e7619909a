package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnreachable marks failures to talk to the tmux server at all (binary
// missing, ssh connection refused). Callers treat it as fatal.
var ErrUnreachable = errors.New("tmux backend unreachable")

const windowFormat = "#{window_index}|#{window_active}|#{window_activity}|#{window_name}"

type WindowInfo struct {
	Session  string
	Index    int
	Name     string
	Active   bool
	Activity time.Time
}

// Target returns the exact-match tmux target for the window.
func (w WindowInfo) Target() string {
	return WindowTarget(w.Session, w.Index)
}

// CommandError carries the stderr of a failed tmux invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("tmux %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("tmux %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// FindTmux locates the tmux binary.
func FindTmux() (string, error) {
	return exec.LookPath("tmux")
}

// SessionTarget returns a target matching the session name exactly
// (tmux would otherwise accept a prefix).
func SessionTarget(session string) string {
	return "=" + session
}

// WindowTarget returns the exact-match target for window index in session.
func WindowTarget(session string, index int) string {
	return fmt.Sprintf("=%s:%d", session, index)
}

// runCommand runs tmux with args and returns stdout.
// A non-zero exit is returned as *CommandError; failing to start tmux at
// all is wrapped with ErrUnreachable.
func runCommand(tmuxBin string, args ...string) (string, error) {
	cmd := exec.Command(tmuxBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{Args: args, Stderr: stderr.String(), Err: err}
		}
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return stdout.String(), nil
}

// parseWindowList parses tmux list-windows output produced with windowFormat.
// The name is last so it may itself contain '|'.
func parseWindowList(output, session string) []WindowInfo {
	var windows []WindowInfo
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		activityUnix, _ := strconv.ParseInt(parts[2], 10, 64)

		windows = append(windows, WindowInfo{
			Session:  session,
			Index:    index,
			Name:     parts[3],
			Active:   parts[1] == "1",
			Activity: time.Unix(activityUnix, 0),
		})
	}
	sortWindows(windows)
	return windows
}

// parseWindowLine parses the single line printed by new-window -P.
func parseWindowLine(output, session string) (WindowInfo, error) {
	windows := parseWindowList(output, session)
	if len(windows) != 1 {
		return WindowInfo{}, fmt.Errorf("unexpected new-window output %q", strings.TrimSpace(output))
	}
	return windows[0], nil
}

func sortWindows(windows []WindowInfo) {
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Index < windows[j].Index
	})
}

// newWindowArgs builds the new-window invocation. The trailing colon in
// "=session:" asks tmux for the next free index.
func newWindowArgs(session, name string, index int) []string {
	target := SessionTarget(session) + ":"
	if index >= 0 {
		target = WindowTarget(session, index)
	}
	return []string{"new-window", "-d", "-P", "-F", windowFormat, "-t", target, "-n", name}
}

// filterTMUX removes the TMUX env var so we can attach from within tmux.
func filterTMUX(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, "TMUX=") {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// RunAttachSession runs tmux attach as a child process (returns on detach).
func RunAttachSession(target string) error {
	tmuxBin, err := FindTmux()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	cmd := exec.Command(tmuxBin, "attach-session", "-t", target)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = filterTMUX(os.Environ())
	return cmd.Run()
}
