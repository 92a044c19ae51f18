package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amichne/konditional/internal/ctlclient"
)

var (
	overrideType  string
	overrideValue string
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Set or clear a feature override",
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <feature>",
	Short: "Force a feature to evaluate to a fixed value, bypassing rules",
	Long: `Examples:
  konditionalctl override set darkMode --type BOOLEAN --value true
  konditionalctl override set apiEndpoint --type STRING --value https://staging.example.com
  konditionalctl override set checkoutVariant --type ENUM --value EXPRESS`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := parseOverrideValue(overrideType, overrideValue)
		if err != nil {
			return err
		}
		c := ctlclient.New(baseURL)
		if err := c.SetOverride(context.Background(), args[0], strings.ToUpper(overrideType), parsed); err != nil {
			return fmt.Errorf("set override: %w", err)
		}
		if !quiet {
			fmt.Printf("overrode %s to %v\n", args[0], parsed)
		}
		return nil
	},
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear <feature>",
	Short: "Remove a previously set override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := ctlclient.New(baseURL)
		if err := c.ClearOverride(context.Background(), args[0]); err != nil {
			return fmt.Errorf("clear override: %w", err)
		}
		if !quiet {
			fmt.Printf("cleared override for %s\n", args[0])
		}
		return nil
	},
}

func parseOverrideValue(valueType, raw string) (any, error) {
	switch strings.ToUpper(valueType) {
	case "BOOLEAN":
		return strconv.ParseBool(raw)
	case "INT":
		n, err := strconv.ParseInt(raw, 10, 64)
		return float64(n), err
	case "DOUBLE":
		return strconv.ParseFloat(raw, 64)
	case "STRING", "ENUM":
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported --type %q (want BOOLEAN, STRING, INT, DOUBLE, or ENUM)", valueType)
	}
}

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.AddCommand(overrideSetCmd, overrideClearCmd)

	overrideSetCmd.Flags().StringVar(&overrideType, "type", "", "Value type: BOOLEAN, STRING, INT, DOUBLE, or ENUM")
	overrideSetCmd.Flags().StringVar(&overrideValue, "value", "", "The value to force")
	_ = overrideSetCmd.MarkFlagRequired("type")
	_ = overrideSetCmd.MarkFlagRequired("value")
}
