package config

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value. An empty value restores the default.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  tsm config set refresh-interval 1m\n" +
			"  tsm config set session-store file\n" +
			"  tsm config set api-url \"\"",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}

	return cmd
}

func runSet(cmd *cobra.Command, args []string) error {
	key := util.NormalizeKey(args[0])
	value := args[1]

	spec := config.Lookup(key)
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := spec.Set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	stored := spec.Get(cfg)
	if stored == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s reset to default %q\n", spec.Name, spec.Default)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, stored)
	return nil
}
