package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/tui"
)

var lsCmd = &cobra.Command{
	Use:     "ls <[host:]session>",
	Aliases: []string{"list"},
	Short:   "List the windows of a session",
	Args:    cobra.ExactArgs(1),
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
		windows, err := sess.Windows()
		if err != nil {
			return err
		}

		sentinel := conn.Layout().SentinelName
		tbl := newTable(cmd.OutOrStdout(), "INDEX", "NAME", "ACTIVE", "ACTIVITY")
		for _, w := range windows {
			label := w.Name
			if w.Name == sentinel {
				label += " (sentinel)"
			}
			active := ""
			if w.Active {
				active = "*"
			}
			activity := "-"
			if !w.Activity.IsZero() {
				activity = tui.FormatDurationCoarse(time.Since(w.Activity)) + " ago"
			}
			tbl.AddRow(w.Index, label, active, activity)
		}
		tbl.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
