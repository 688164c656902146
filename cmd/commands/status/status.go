package status

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/app"
	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how many servers are online",
		Long: `Show the account-wide server status summary.

Examples:
  tsm status
  tsm status -o json`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, err := app.Load(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, sess, err := a.Monitor()
	if err != nil {
		return err
	}

	var summary *domain.StatusSummary
	err = output.Spin(cmd, "Fetching status...", func() error {
		var getErr error
		summary, getErr = svc.GetStatus(cmd.Context())
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d of %d servers online\n", sess.User.Email, summary.Online, summary.Total)
	if summary.StatusText != "" {
		fmt.Fprintf(out, "  %s\n", summary.StatusText)
	}
	return nil
}
