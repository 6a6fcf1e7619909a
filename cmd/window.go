package cmd

import (
	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/mux"
)

var windowCmd = &cobra.Command{
	Use:   "window <[host:]session> <name>",
	Short: "Find or create a window",
	Long: `Find the window by name or create it. With --index the window is moved
there if it sits elsewhere, or created there if it does not exist.`,
	Args: cobra.ExactArgs(2),
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

		attach, _ := cmd.Flags().GetBool("attach")
		if attach {
			info, err := w.Info()
			if err != nil {
				return err
			}
			e.Close()
			return conn.Executor().AttachSession(info.Target())
		}
		return nil
	},
}

// indexOption returns AtIndex for an explicit --index flag.
func indexOption(cmd *cobra.Command) []mux.WindowOption {
	if !cmd.Flags().Changed("index") {
		return nil
	}
	idx, _ := cmd.Flags().GetInt("index")
	return []mux.WindowOption{mux.AtIndex(idx)}
}

func init() {
	windowCmd.Flags().IntP("index", "i", 0, "Window index")
	windowCmd.Flags().BoolP("attach", "a", false, "Attach to the window afterwards")
	rootCmd.AddCommand(windowCmd)
}
