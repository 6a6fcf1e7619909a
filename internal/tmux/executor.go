package tmux

// Executor abstracts tmux operations so they can run locally or over SSH.
// Windows are addressed by session name and index; names are only labels.
type Executor interface {
	HostName() string
	HasSession(name string) (bool, error)
	NewSession(name string) error
	ListWindows(session string) ([]WindowInfo, error)
	// NewWindow creates a detached window. A negative index lets tmux pick
	// the next free one.
	NewWindow(session, name string, index int) (WindowInfo, error)
	MoveWindow(session string, from, to int) error
	KillWindow(session string, index int) error
	SendKeys(session string, index int, text string) error
	AttachSession(target string) error
}
