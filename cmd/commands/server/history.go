package server

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

const (
	chartHeight = 8
	chartWidth  = 60
	hourLayout  = "Jan 2 15:04"
)

// historyOutput is the JSON form of the bucketed history.
type historyOutput struct {
	Server  domain.Server    `json:"server"`
	CPU     []metrics.Bucket `json:"cpu"`
	Memory  []metrics.Bucket `json:"memory"`
	Network []metrics.Bucket `json:"network"`
	DiskIO  []metrics.Bucket `json:"disk_io"`
}

func HistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <server>",
		Short: "Chart a server's last 24 hours",
		Long: `Chart a server's CPU, memory, network and disk I/O over the last 24 hours,
one point per hour.

Examples:
  tsm server history web-1
  tsm server history 42 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runHistory,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
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
	err = output.Spin(cmd, "Fetching history...", func() error {
		var getErr error
		detail, getErr = svc.GetServer(cmd.Context(), server.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch server history: %w", err)
	}

	series := metrics.DefaultBucketer.BucketHistory(detail.History)

	if format == output.JSON {
		return output.PrintJSON(cmd, historyOutput{
			Server:  *server,
			CPU:     series.CPU,
			Memory:  series.Memory,
			Network: series.Network,
			DiskIO:  series.DiskIO,
		})
	}

	out := cmd.OutOrStdout()
	if series.Empty() {
		fmt.Fprintf(out, "No history recorded for %s in the last 24 hours.\n", server.Name)
		return nil
	}

	fmt.Fprintf(out, "%s (ID: %s), last 24 hours\n\n", server.Name, server.ID)
	fmt.Fprintln(out, plot("CPU %", metrics.FormatPercent, series.CPU, metrics.CPUTotal))
	fmt.Fprintln(out, plot("Memory %", metrics.FormatPercent, series.Memory, metrics.MemoryPercent))
	fmt.Fprintln(out, plot("Network sent", metrics.FormatBytes, series.Network, metrics.NetworkSent))
	fmt.Fprintln(out, plot("Network received", metrics.FormatBytes, series.Network, metrics.NetworkRecv))
	fmt.Fprintln(out, plot("Disk read", metrics.FormatBytes, series.DiskIO, metrics.DiskRead))
	fmt.Fprintln(out, plot("Disk written", metrics.FormatBytes, series.DiskIO, metrics.DiskWrite))
	return nil
}

// plot charts field i of buckets with a caption summarising its range.
func plot(label string, format func(float64) string, buckets []metrics.Bucket, i int) string {
	data := metrics.Column(buckets, i)
	if len(data) == 0 {
		return label + ": no data\n"
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	b.WriteString(label + "\n")
	if len(data) > 1 {
		b.WriteString(asciigraph.Plot(data,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Precision(0),
		))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %s to %s, cur: %s  min: %s  max: %s\n",
		buckets[0].Hour.Format(hourLayout), buckets[len(buckets)-1].Hour.Format(hourLayout),
		format(data[len(data)-1]), format(lo), format(hi))
	return b.String()
}
