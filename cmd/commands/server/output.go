package server

import (
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// printServerTable prints one row per server.
func printServerTable(cmd *cobra.Command, servers []domain.Server) {
	w := output.NewTable(cmd.OutOrStdout(), "ID", "NAME", "IDENTIFIER", "CREATED")
	for _, s := range servers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.ID,
			s.Name,
			orDash(s.UniqueIdentifier),
			formatCreated(s.CreatedAt),
		)
	}
	w.Flush()
}

// printServerDetail prints a vertical key-value table of the server fields.
func printServerDetail(cmd *cobra.Command, server *domain.Server) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  ID:\t%s\n", server.ID)
	fmt.Fprintf(w, "  Name:\t%s\n", server.Name)
	if server.UniqueIdentifier != "" {
		fmt.Fprintf(w, "  Identifier:\t%s\n", server.UniqueIdentifier)
	}
	if server.Description != "" {
		fmt.Fprintf(w, "  Description:\t%s\n", server.Description)
	}
	if !server.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created:\t%s (%s)\n",
			server.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
			humanize.Time(server.CreatedAt.Time))
	}

	w.Flush()
}

// printHistorySummary prints the latest value of each 24h series.
func printHistorySummary(cmd *cobra.Command, h domain.History) {
	cpu, cpuOK := metrics.LatestValue(h.CPU, metrics.Field(metrics.CPUFields, metrics.CPUTotal))
	mem, memOK := metrics.LatestValue(h.Memory, metrics.Field(metrics.MemoryFields, metrics.MemoryPercent))
	used, usedOK := metrics.LatestValue(h.Memory, metrics.Field(metrics.MemoryFields, metrics.MemoryUsed))
	total, _ := metrics.LatestValue(h.Memory, metrics.Field(metrics.MemoryFields, metrics.MemoryTotal))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLatest (24h history):")
	fmt.Fprintf(w, "  CPU:\t%s\n", metrics.FormatLatest(cpu, cpuOK, metrics.FormatPercent))
	fmt.Fprintf(w, "  Memory:\t%s", metrics.FormatLatest(mem, memOK, metrics.FormatPercent))
	if usedOK && total > 0 {
		fmt.Fprintf(w, " (%s of %s)", metrics.FormatBytes(used), metrics.FormatBytes(total))
	}
	fmt.Fprintln(w)
	if len(h.Network) > 0 {
		sent := metrics.SumAcrossGroups(h.Network, metrics.Field(metrics.NetworkFields, metrics.NetworkSent))
		recv := metrics.SumAcrossGroups(h.Network, metrics.Field(metrics.NetworkFields, metrics.NetworkRecv))
		fmt.Fprintf(w, "  Network:\t%s sent, %s received\n", metrics.FormatBytes(sent), metrics.FormatBytes(recv))
	}
	if len(h.DiskIO) > 0 {
		read := metrics.SumAcrossGroups(h.DiskIO, metrics.Field(metrics.DiskIOFields, metrics.DiskRead))
		write := metrics.SumAcrossGroups(h.DiskIO, metrics.Field(metrics.DiskIOFields, metrics.DiskWrite))
		fmt.Fprintf(w, "  Disk I/O:\t%s read, %s written\n", metrics.FormatBytes(read), metrics.FormatBytes(write))
	}
	fmt.Fprintf(w, "  Samples:\t%d cpu, %d memory\n", len(h.CPU), len(h.Memory))
	w.Flush()
}

func formatCreated(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
