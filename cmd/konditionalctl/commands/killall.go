package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/ctlclient"
)

var killAllCmd = &cobra.Command{
	Use:   "kill-all",
	Short: "Disable every feature in the namespace, bypassing rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := ctlclient.New(baseURL)
		if err := c.KillAll(context.Background()); err != nil {
			return fmt.Errorf("kill-all: %w", err)
		}
		if !quiet {
			fmt.Println("namespace disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(killAllCmd)
}
