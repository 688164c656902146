package config

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/config"

	"github.com/spf13/cobra"
)

// ListCommand returns the "config list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List every configuration key with its stored value and default.

Example:
  tsm config list`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	w := output.NewTable(cmd.OutOrStdout(), "KEY", "VALUE", "DEFAULT")
	for _, spec := range config.Keys {
		value := spec.Get(cfg)
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Name, value, spec.Default)
	}
	w.Flush()
	return nil
}
