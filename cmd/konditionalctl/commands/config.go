package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ~/.konditionalctl/config.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with dev/staging/prod entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("init config: %w", err)
		}
		path, _ := cli.ConfigPath()
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		for name, env := range cfg.Environments {
			marker := ""
			if name == cfg.DefaultEnvironment {
				marker = " (default)"
			}
			fmt.Printf("%s%s -> %s\n", name, marker, env.BaseURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configListCmd)
}
