package server

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <server>",
		Short: "Show details for a server",
		Long: `Show a server's details and the latest values of its 24h history.

Examples:
  tsm server show 42
  tsm server show web-1 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, svc, _, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := resolve(cmd, svc, args[0])
	if err != nil {
		return err
	}

	var detail *domain.ServerDetail
	err = output.Spin(cmd, "Fetching server...", func() error {
		var getErr error
		detail, getErr = svc.GetServer(cmd.Context(), server.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch server: %w", err)
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, detail)
	}

	info := detail.Info
	if info.ID == "" {
		info = *server
	}
	printServerDetail(cmd, &info)
	printHistorySummary(cmd, detail.History)
	return nil
}
