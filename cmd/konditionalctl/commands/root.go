package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/cli"
)

var (
	baseURL     string
	format      string
	quiet       bool
	namespace   string
	environment string
)

var rootCmd = &cobra.Command{
	Use:   "konditionalctl",
	Short: "Operator CLI for a konditionald instance",
	Long: `konditionalctl is a command-line tool for operating a running
konditionald host: loading snapshots, rolling back, killing a
namespace, and setting or clearing overrides.

The konditionald base URL is resolved, in priority order, from
--base-url, the KONDITIONAL_BASE_URL environment variable, and the
named --env entry in ~/.konditionalctl/config.yaml (run "konditionalctl
config init" to create one with dev/staging/prod defaults).

Examples:
  konditionalctl get darkMode
  konditionalctl load snapshot.json
  konditionalctl rollback 1
  konditionalctl override set darkMode --type BOOLEAN --value true
  konditionalctl diff before.json after.json
  konditionalctl --env staging get darkMode`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		explicitFlag := ""
		if cmd.Flags().Changed("base-url") {
			explicitFlag = baseURL
		}
		resolved, err := cli.ResolveBaseURL(environment, explicitFlag)
		if err != nil {
			return fmt.Errorf("resolve base URL: %w", err)
		}
		if resolved != "" {
			baseURL = resolved
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the konditionald instance")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "app", "Namespace ID whose compile-time feature set this CLI decodes against")
	rootCmd.PersistentFlags().StringVar(&environment, "env", "", "Named environment from ~/.konditionalctl/config.yaml")
}
