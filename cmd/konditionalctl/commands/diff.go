package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/demo"
)

var diffCmd = &cobra.Command{
	Use:   "diff <before.json> <after.json>",
	Short: "Print the minimal patch that turns one snapshot into another",
	Long: `Diff is a purely local operation: it never contacts a
konditionald instance. It is useful for reviewing what a patch file
will actually change before running "konditionalctl patch".

Examples:
  konditionalctl diff before.json after.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := demo.BuildNamespace(namespace)
		if err != nil {
			return fmt.Errorf("declare namespace: %w", err)
		}

		beforeBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		afterBytes, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}

		before, err := codec.Decode(beforeBytes, ns, codec.Options{})
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		after, err := codec.Decode(afterBytes, ns, codec.Options{})
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[1], err)
		}

		patch, err := codec.Diff(before, after, ns)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}
		fmt.Println(string(patch))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
