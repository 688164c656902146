package server

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
)

// commandWidth truncates long command lines in table output.
const commandWidth = 60

func ProcessesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "processes <server>",
		Aliases: []string{"ps"},
		Short:   "List the processes running on a server",
		Long: `List a server's processes, highest CPU first.

--filter keeps processes whose name, user or command line contains the
text (case-insensitive). --sort memory orders by memory instead.

Examples:
  tsm server processes web-1
  tsm server processes web-1 --filter nginx --sort memory --limit 10`,
		Args:         cobra.ExactArgs(1),
		RunE:         runProcesses,
		SilenceUsage: true,
	}

	cmd.Flags().String("filter", "", "Only show processes matching this text")
	cmd.Flags().String("sort", "cpu", "Sort by cpu or memory")
	cmd.Flags().Int("limit", 0, "Show at most this many processes (0 for all)")
	output.AddFlag(cmd)

	return cmd
}

func runProcesses(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}
	sortFlag, _ := cmd.Flags().GetString("sort")
	by, err := metrics.ParseProcessSort(sortFlag)
	if err != nil {
		return err
	}
	filter, _ := cmd.Flags().GetString("filter")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("limit must not be negative")
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

	var list *domain.ProcessList
	err = output.Spin(cmd, "Fetching processes...", func() error {
		var getErr error
		list, getErr = svc.GetProcesses(cmd.Context(), server.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch processes: %w", err)
	}

	procs := metrics.FilterProcesses(list.Processes, filter, by)
	if limit > 0 && len(procs) > limit {
		procs = procs[:limit]
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, procs)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d total, %d running, %d sleeping, %d threads (sorted by %s)\n\n",
		list.ProcTotal, list.ProcRunning, list.ProcSleeping, list.ProcThreads, by)

	if len(procs) == 0 {
		fmt.Fprintln(out, "No matching processes.")
		return nil
	}

	w := output.NewTable(out, "PID", "NAME", "USER", "CPU%", "MEM%", "STATUS", "COMMAND")
	for _, p := range procs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.PID,
			p.Name,
			orDash(p.Username),
			metrics.FormatPercent(p.CPUPercent),
			metrics.FormatPercent(p.MemoryPercent),
			orDash(p.Status),
			orDash(ansi.Truncate(p.Cmdline.String(), commandWidth, "…")),
		)
	}
	w.Flush()
	return nil
}
