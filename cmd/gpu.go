package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simon/jobmux/internal/mux"
)

var gpuCmd = &cobra.Command{
	Use:   "gpu <[host:]session> <gpu> <command...>",
	Short: "Run a command pinned to one GPU",
	Long: `Find or create window "gpu-N" at index N and type the command into it,
prefixed with the device isolation directive for GPU N.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		gpu, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid gpu %q: %w", args[1], err)
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
		g, err := mux.NewGPUWindow(conn, session, gpu)
		if err != nil {
			return err
		}
		return g.Run(strings.Join(args[2:], " "))
	},
}

func init() {
	gpuCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(gpuCmd)
}
