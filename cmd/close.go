package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <[host:]session>",
	Short: "Kill every window of a session",
	Long: `Kill every window except a sentinel window kept at the reserved index,
so the session survives with a single idle window. With --kill-session the
sentinel goes too and tmux destroys the session.`,
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
		sess, err := existingSession(conn, name)
		if err != nil {
			return err
		}

		killSession, _ := cmd.Flags().GetBool("kill-session")
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			what := "windows of"
			if killSession {
				what = "session and all windows of"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Kill %s %q? [y/N] ", what, args[0])
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		return sess.CloseWindows(!killSession)
	},
}

func init() {
	closeCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
	closeCmd.Flags().Bool("kill-session", false, "Also remove the sentinel, destroying the session")
	rootCmd.AddCommand(closeCmd)
}
