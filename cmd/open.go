package cmd

import (
	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/tmux"
)

var openCmd = &cobra.Command{
	Use:   "open <[host:]session>",
	Short: "Find or create a session",
	Long: `Find the session by exact name or create it detached. A newly created
session has its default windows shifted out of the low index range.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		conn, name, err := e.connector(args[0])
		if err != nil {
			return err
		}
		sess, err := conn.OpenSession(name)
		if err != nil {
			return err
		}

		attach, _ := cmd.Flags().GetBool("attach")
		if attach {
			e.Close()
			return conn.Executor().AttachSession(tmux.SessionTarget(sess.Name()))
		}
		return nil
	},
}

func init() {
	openCmd.Flags().BoolP("attach", "a", false, "Attach to the session afterwards")
	rootCmd.AddCommand(openCmd)
}
