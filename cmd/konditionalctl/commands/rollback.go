package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/ctlclient"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <n>",
	Short: "Roll the namespace back n published snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := strconv.Atoi(args[0])
		if err != nil || steps < 1 {
			return fmt.Errorf("steps must be a positive integer, got %q", args[0])
		}

		c := ctlclient.New(baseURL)
		if err := c.Rollback(context.Background(), steps); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		if !quiet {
			fmt.Printf("rolled back %d step(s)\n", steps)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
