package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/mux"
)

var moveCmd = &cobra.Command{
	Use:   "move <[host:]session> <window> <index>",
	Short: "Move a window to another index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[2], err)
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		conn, session, err := e.connector(args[0])
		if err != nil {
			return err
		}
		w, err := mux.NewWindow(conn, session, args[1])
		if err != nil {
			return err
		}
		return w.Move(index)
	},
}

var shiftCmd = &cobra.Command{
	Use:   "shift <[host:]session> <delta>",
	Short: "Move every window of a session by a constant offset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[1], err)
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		conn, name, err := e.connector(args[0])
		if err != nil {
			return err
		}
		sess, _, err := conn.GetOrCreateSession(name)
		if err != nil {
			return err
		}
		return sess.ShiftAllWindows(delta)
	},
}

func init() {
	// allow negative deltas after the session argument
	shiftCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(shiftCmd)
}
