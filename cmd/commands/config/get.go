package config

import (
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/tui"
	"nathanbeddoewebdev/tsm/internal/util"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Long: "Get a persistent configuration value.\n\n" +
			"If no key is provided and running in a terminal, opens an interactive\n" +
			"config viewer where you can browse and edit all settings.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  tsm config get                     # interactive viewer\n" +
			"  tsm config get refresh-interval    # print a single value",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if err := tui.RunConfigView(); err != nil {
				return fmt.Errorf("config view failed: %w", err)
			}
			return nil
		}
		return runList(cmd, args)
	}

	key := util.NormalizeKey(args[0])

	spec := config.Lookup(key)
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value := spec.Get(cfg)
	if value == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "not set (default %s)\n", spec.Default)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}
	return nil
}
