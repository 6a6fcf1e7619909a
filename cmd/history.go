package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/config"
	"github.com/simon/jobmux/internal/mux"
	"github.com/simon/jobmux/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history [[host:]session]",
	Short: "Show journaled session and window transitions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.cfg.Journal == config.JournalOff {
			return fmt.Errorf("journal is off")
		}
		if e.store == nil {
			// newEnv only warned; surface the real error here.
			if e.store, err = e.openJournal(); err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
		}

		if prune, _ := cmd.Flags().GetDuration("prune"); prune > 0 {
			n, err := e.store.Prune(time.Now().Add(-prune))
			if err != nil {
				return fmt.Errorf("failed to prune journal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", n)
			return nil
		}

		var f state.Filter
		if len(args) == 1 {
			f.Host, f.Session = parseHostName(args[0])
		}
		f.Window, _ = cmd.Flags().GetString("window")
		f.Limit, _ = cmd.Flags().GetInt("limit")

		entries, err := e.store.History(f)
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}

		tbl := newTable(cmd.OutOrStdout(), "TIME", "HOST", "SESSION", "EVENT", "WINDOW", "DETAIL")
		for _, t := range entries {
			host := t.Host
			if host == "" {
				host = "local"
			}
			tbl.AddRow(t.At.Local().Format("2006-01-02 15:04:05"), host, t.Session, string(t.Kind), t.Window, detail(t))
		}
		tbl.Print()
		return nil
	},
}

func detail(t mux.Transition) string {
	switch t.Kind {
	case mux.WindowCreated:
		return fmt.Sprintf("index %d", t.To)
	case mux.WindowMoved:
		return fmt.Sprintf("%d -> %d", t.From, t.To)
	case mux.WindowKilled:
		return fmt.Sprintf("index %d", t.From)
	case mux.CommandSent:
		return "$ " + t.Command
	}
	return ""
}

func init() {
	historyCmd.Flags().StringP("window", "w", "", "Only this window")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries")
	historyCmd.Flags().Duration("prune", 0, "Delete entries older than this (e.g. 720h) instead of listing")
	rootCmd.AddCommand(historyCmd)
}
