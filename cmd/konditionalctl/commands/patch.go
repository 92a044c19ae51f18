package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/ctlclient"
	"github.com/amichne/konditional/internal/demo"
)

var patchCmd = &cobra.Command{
	Use:   "patch <patch.json>",
	Short: "Apply a partial update to the current snapshot and publish the result",
	Long: `Patch fetches the current snapshot, applies the patch file's
adds/replaces/removes to it locally, and publishes the merged result.
The patch itself is never sent as-is: the host only ever receives
whole snapshots, so an invalid patch never leaves a namespace
half-updated.

Examples:
  konditionalctl patch changes.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := demo.BuildNamespace(namespace)
		if err != nil {
			return fmt.Errorf("declare namespace: %w", err)
		}

		patchJSON, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		c := ctlclient.New(baseURL)
		ctx := context.Background()

		current, err := c.GetSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("fetch current snapshot: %w", err)
		}
		currentSnap, err := codec.Decode(current, ns, codec.Options{})
		if err != nil {
			return fmt.Errorf("decode current snapshot: %w", err)
		}

		next, err := codec.ApplyPatchJSON(currentSnap, patchJSON, ns, codec.Options{})
		if err != nil {
			return fmt.Errorf("apply patch: %w", err)
		}

		nextPayload, err := codec.Encode(next, ns)
		if err != nil {
			return fmt.Errorf("encode merged snapshot: %w", err)
		}

		if err := c.LoadSnapshot(ctx, nextPayload); err != nil {
			return fmt.Errorf("publish merged snapshot: %w", err)
		}
		if !quiet {
			fmt.Printf("applied %s and published the merged snapshot\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(patchCmd)
}
