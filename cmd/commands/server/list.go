package server

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all servers",
		Long: `List every server monitored on your account.

Examples:
  tsm server list
  tsm server list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, svc, _, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	var servers []domain.Server
	err = output.Spin(cmd, "Fetching servers...", func() error {
		var listErr error
		servers, listErr = svc.ListServers(cmd.Context())
		return listErr
	})
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	if format == output.JSON {
		if servers == nil {
			servers = []domain.Server{}
		}
		return output.PrintJSON(cmd, servers)
	}

	if len(servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers found. Add one with `tsm server create`.")
		return nil
	}
	printServerTable(cmd, servers)
	return nil
}
