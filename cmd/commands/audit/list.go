package audit

import (
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/auditlog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		Long: `List recent audit entries stored locally.

Examples:
  tsm audit list
  tsm audit list --limit 50
  tsm audit list --command "tsm server create"
  tsm audit list --type website --outcome error --since 7d
  tsm audit list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("type", "", "Filter by resource type (session, server, website)")
	cmd.Flags().String("outcome", "", "Filter by outcome (success, error, canceled)")
	cmd.Flags().String("since", "", "Only show entries newer than this duration (e.g. 24h, 7d)")
	output.AddFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	filter, err := parseFilter(cmd)
	if err != nil {
		return err
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if format == output.JSON {
		if entries == nil {
			entries = []auditlog.Entry{}
		}
		return output.PrintJSON(cmd, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
		return nil
	}

	w := output.NewTable(cmd.OutOrStdout(), "TIME", "COMMAND", "OUTCOME", "DURATION", "RESOURCE", "DETAIL")
	for _, entry := range entries {
		detail := entry.Detail
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Command,
			entry.Outcome,
			formatDuration(entry.DurationMs),
			entry.Resource(),
			detail,
		)
	}
	w.Flush()
	return nil
}

func parseFilter(cmd *cobra.Command) (auditlog.Filter, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return auditlog.Filter{}, fmt.Errorf("limit must be greater than 0")
	}

	command, _ := cmd.Flags().GetString("command")
	resourceType, _ := cmd.Flags().GetString("type")
	outcome, _ := cmd.Flags().GetString("outcome")
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	switch outcome {
	case "", auditlog.OutcomeSuccess, auditlog.OutcomeError, auditlog.OutcomeCanceled:
	default:
		return auditlog.Filter{}, fmt.Errorf("invalid outcome %q (use success, error or canceled)", outcome)
	}

	filter := auditlog.Filter{
		Command:      strings.TrimSpace(command),
		ResourceType: strings.ToLower(strings.TrimSpace(resourceType)),
		Outcome:      outcome,
		Limit:        limit,
	}

	since, _ := cmd.Flags().GetString("since")
	if since = strings.TrimSpace(since); since != "" {
		d, err := parseDuration(since)
		if err != nil {
			return auditlog.Filter{}, err
		}
		filter.Since = time.Now().Add(-d)
	}
	return filter, nil
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
