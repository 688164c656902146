package cache

import (
	"fmt"

	"nathanbeddoewebdev/tsm/internal/swrcache"

	"github.com/spf13/cobra"
)

// NewCommand returns the "cache" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached API responses",
		Long: "Read commands keep API responses on disk for a short time and serve\n" +
			"them while refreshing in the background.\n\n" +
			"Responses are stored under " + swrcache.DefaultDir() + ".",
	}

	cmd.AddCommand(ClearCommand())

	return cmd
}

// ClearCommand returns the "cache clear" command.
func ClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached API responses",
		Long: `Delete all cached API responses for every account. The next read
command fetches fresh data.

Example:
  tsm cache clear`,
		Args:         cobra.NoArgs,
		RunE:         runClear,
		SilenceUsage: true,
	}

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	if err := swrcache.NewDefault().Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}
