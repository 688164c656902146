package config

import (
	"nathanbeddoewebdev/tsm/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tsm configuration",
		Long: "View and modify persistent tsm settings.\n\n" +
			"Configuration is stored at ~/.config/tsm/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())
	cmd.AddCommand(ListCommand())

	return cmd
}
