package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/mux"
)

var runCmd = &cobra.Command{
	Use:   "run <[host:]session> <window> <command...>",
	Short: "Type a command into a window",
	Long: `Find or create the window, then type the command into it followed by
Enter. jobmux does not wait for the command or capture its output.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		conn, session, err := e.connector(args[0])
		if err != nil {
			return err
		}
		w, err := mux.NewWindow(conn, session, args[1], indexOption(cmd)...)
		if err != nil {
			return err
		}
		return w.Run(strings.Join(args[2:], " "))
	},
}

func init() {
	runCmd.Flags().IntP("index", "i", 0, "Window index")
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}
