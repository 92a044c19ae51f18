package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/ctlclient"
)

var loadCmd = &cobra.Command{
	Use:   "load <snapshot.json>",
	Short: "Publish a whole snapshot from a file",
	Long: `Load replaces the namespace's current snapshot wholesale. The
file must be the codec wire format described by the snapshot schema;
a partial payload is rejected, never partially applied.

Examples:
  konditionalctl load snapshot.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		c := ctlclient.New(baseURL)
		if err := c.LoadSnapshot(context.Background(), payload); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if !quiet {
			fmt.Printf("loaded snapshot from %s\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
