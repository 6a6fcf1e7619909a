package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simon/jobmux/internal/tui"
)

func SetVersionInfo(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

var rootCmd = &cobra.Command{
	Use:   "jobmux <[host:]session>",
	Short: "Run jobs in named tmux windows, locally or over ssh",
	Long: `jobmux keeps long-running jobs in named tmux windows.

Without a subcommand it opens a dashboard of the session's windows,
creating the session first if needed. Enter attaches to the selected
window; detaching returns to the dashboard.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		// The dashboard owns the terminal.
		e.out = io.Discard

		conn, name, err := e.connector(args[0])
		if err != nil {
			return err
		}
		sess, err := conn.OpenSession(name)
		if err != nil {
			return err
		}

		for {
			m := tui.NewModel(conn, sess)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

			finalModel, err := p.Run()
			if err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}

			final := finalModel.(tui.Model)
			if final.AttachTarget == "" {
				break
			}

			e.log.Debug("attaching", zap.String("target", final.AttachTarget))
			// Attach as child process; returns when user detaches
			if err := conn.Executor().AttachSession(final.AttachTarget); err != nil {
				e.log.Warn("attach failed", zap.String("target", final.AttachTarget), zap.Error(err))
			}
			// Loop restarts TUI
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Shorthand for --log-level debug")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Do not print transitions to stdout")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
