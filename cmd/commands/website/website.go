package website

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/app"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/services/monitor"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "website",
		Aliases: []string{"websites", "site"},
		Short:   "Inspect and manage monitored websites",
		Long: `List, inspect, add and remove the websites monitored on your account,
and measure latency to a host from this machine.

Commands that take <website> accept either the website ID or its URL.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(AddCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(PingCommand())

	return cmd
}

func connect() (*app.App, *monitor.Service, *domain.Session, error) {
	a, err := app.Load(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, sess, err := a.Monitor()
	if err != nil {
		return nil, nil, nil, err
	}
	return a, svc, sess, nil
}

func resolve(cmd *cobra.Command, svc *monitor.Service, arg string) (*domain.Website, error) {
	var site *domain.Website
	err := output.Spin(cmd, "Looking up website...", func() error {
		var findErr error
		site, findErr = svc.FindWebsite(cmd.Context(), arg)
		return findErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find website: %w", err)
	}
	return site, nil
}
