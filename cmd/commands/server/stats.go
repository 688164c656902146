package server

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/spf13/cobra"
)

func StatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <server>",
		Short: "Show live stats for a server",
		Long: `Show a server's live snapshot: uptime, process counts, filesystems
and network interfaces with their current transfer rates.

Filesystems above 80% usage are flagged.

Examples:
  tsm server stats web-1
  tsm server stats 42 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runStats,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
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

	var stats *domain.LiveStats
	err = output.Spin(cmd, "Fetching live stats...", func() error {
		var getErr error
		stats, getErr = svc.GetLiveStats(cmd.Context(), server.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch live stats: %w", err)
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, stats)
	}

	printStats(cmd, server, stats)
	return nil
}

func printStats(cmd *cobra.Command, server *domain.Server, stats *domain.LiveStats) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s (ID: %s)\n", server.Name, server.ID)
	fmt.Fprintf(out, "  Uptime:     %s\n", stats.Uptime)
	fmt.Fprintf(out, "  Processes:  %d total, %d running, %d sleeping, %d threads\n",
		stats.ProcTotal, stats.ProcRunning, stats.ProcSleeping, stats.ProcThreads)
	if !stats.LastUpdated.IsZero() {
		fmt.Fprintf(out, "  Updated:    %s\n", stats.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintln(out)
	if len(stats.FileSystems) == 0 {
		fmt.Fprintln(out, "No filesystems reported.")
	} else {
		w := output.NewTable(out, "MOUNT", "DEVICE", "TYPE", "SIZE", "USED", "FREE", "USE%")
		for _, fs := range stats.FileSystems {
			use := metrics.FormatPercent(fs.Percent)
			if metrics.ClassifyUsage(fs.Percent) == metrics.LevelCritical {
				use += " !"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				fs.MountPoint,
				fs.DeviceName,
				fs.FSType,
				metrics.FormatBytes(fs.Size),
				metrics.FormatBytes(fs.Used),
				metrics.FormatBytes(fs.Free),
				use,
			)
		}
		w.Flush()

		totals := metrics.TotalStorage(stats.FileSystems)
		fmt.Fprintf(out, "Total: %s of %s used (%s)",
			metrics.FormatBytes(totals.Used), metrics.FormatBytes(totals.Size), metrics.FormatPercent(totals.Percent()))
		if totals.Warnings > 0 {
			fmt.Fprintf(out, ", %d above %.0f%%", totals.Warnings, metrics.UsageCritical)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	if len(stats.Networks) == 0 {
		fmt.Fprintln(out, "No network interfaces reported.")
		return
	}
	w := output.NewTable(out, "INTERFACE", "SENT", "RECEIVED", "SEND RATE", "RECV RATE")
	for _, n := range stats.Networks {
		name := n.Name
		if n.Alias != "" {
			name += " (" + n.Alias + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name,
			metrics.FormatBytes(n.BytesSent),
			metrics.FormatBytes(n.BytesRecv),
			metrics.FormatRate(n.BytesSentRate),
			metrics.FormatRate(n.BytesRecvRate),
		)
	}
	w.Flush()

	totals := metrics.TotalNetwork(stats.Networks)
	fmt.Fprintf(out, "Total: %s sent, %s received (%s up, %s down)\n",
		metrics.FormatBytes(totals.BytesSent), metrics.FormatBytes(totals.BytesRecv),
		metrics.FormatRate(totals.BytesSentRate), metrics.FormatRate(totals.BytesRecvRate))
}
