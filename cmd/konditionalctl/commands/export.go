package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/ctlclient"
	"github.com/amichne/konditional/internal/ctloutput"
	"github.com/amichne/konditional/internal/demo"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current snapshot",
	Long: `Export every feature currently published by the host.

Examples:
  konditionalctl export
  konditionalctl export --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := demo.BuildNamespace(namespace)
		if err != nil {
			return fmt.Errorf("declare namespace: %w", err)
		}

		c := ctlclient.New(baseURL)
		payload, err := c.GetSnapshot(context.Background())
		if err != nil {
			return fmt.Errorf("fetch snapshot: %w", err)
		}

		snap, err := codec.Decode(payload, ns, codec.Options{})
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}

		return ctloutput.PrintSnapshot(snap, ctloutput.Format(format))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
