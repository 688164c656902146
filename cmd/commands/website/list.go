package website

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitored websites with their health",
		Long: `List every monitored website with its status across the check
locations, average response time, 24h uptime and certificate state.

Examples:
  tsm website list
  tsm website list -o json`,
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

	var details []domain.WebsiteDetail
	err = output.Spin(cmd, "Fetching websites...", func() error {
		var listErr error
		details, listErr = svc.ListWebsiteDetails(cmd.Context())
		return listErr
	})
	if err != nil {
		return fmt.Errorf("failed to list websites: %w", err)
	}

	summaries := make([]summary, len(details))
	for i, d := range details {
		summaries[i] = summarize(d)
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No websites monitored. Add one with `tsm website add <url>`.")
		return nil
	}

	w := output.NewTable(cmd.OutOrStdout(), "ID", "URL", "STATUS", "LOCATIONS", "AVG", "UPTIME 24H", "SSL")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d up\t%s\t%s\t%s\n",
			s.ID,
			s.URL,
			s.Status,
			s.Up, s.Reporting,
			s.avg(),
			metrics.FormatPercent(s.Uptime24h),
			s.ssl(),
		)
	}
	w.Flush()
	return nil
}
