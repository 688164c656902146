package server

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
		Use:     "server",
		Aliases: []string{"servers"},
		Short:   "Inspect and manage monitored servers",
		Long: `List, inspect, add and remove the servers monitored on your account.

Commands that take <server> accept either the numeric server ID or the
server name.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(StatsCommand())
	cmd.AddCommand(ProcessesCommand())
	cmd.AddCommand(ContainersCommand())
	cmd.AddCommand(HistoryCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(DeleteCommand())

	return cmd
}

// connect loads the app and a monitor service for the stored session. The
// caller must Close the app.
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

// resolve finds the server named by arg, which may be an ID or a name.
func resolve(cmd *cobra.Command, svc *monitor.Service, arg string) (*domain.Server, error) {
	var server *domain.Server
	err := output.Spin(cmd, "Looking up server...", func() error {
		var findErr error
		server, findErr = svc.FindServer(cmd.Context(), arg)
		return findErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find server: %w", err)
	}
	return server, nil
}
