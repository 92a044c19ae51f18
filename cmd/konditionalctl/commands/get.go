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

var getCmd = &cobra.Command{
	Use:   "get <feature>",
	Short: "Show the current definition of one feature",
	Args:  cobra.ExactArgs(1),
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

		if quiet {
			return nil
		}
		return ctloutput.PrintFeature(snap, args[0], ctloutput.Format(format))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
