package website

import (
	"errors"
	"fmt"
	"time"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/netcheck"

	"github.com/spf13/cobra"
)

// pingOutput is the JSON form of a ping result.
type pingOutput struct {
	Host     string  `json:"host"`
	Addr     string  `json:"addr"`
	Method   string  `json:"method"`
	Sent     int     `json:"sent"`
	Received int     `json:"received"`
	LossPct  float64 `json:"loss_percent"`
	MinMs    float64 `json:"min_ms"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	Rating   string  `json:"rating"`
}

func PingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <host>",
		Short: "Measure latency to a host from this machine",
		Long: `Measure round-trip latency to a host or URL from this machine.

ICMP echo is tried first. Where ICMP is blocked, or raw sockets are not
permitted, the connect time of a TCP connection is measured instead (port
443, or 80 for http:// URLs, unless --port is set).

Latency under 100 ms is rated good, under 300 ms fair, otherwise poor.
No login is required.

Examples:
  tsm website ping example.com
  tsm website ping https://example.com --count 10`,
		Args:         cobra.ExactArgs(1),
		RunE:         runPing,
		SilenceUsage: true,
	}

	cmd.Flags().IntP("count", "c", netcheck.DefaultCount, "Number of probes")
	cmd.Flags().Duration("timeout", netcheck.DefaultTimeout, "Time limit for the whole run")
	cmd.Flags().Int("port", 0, "TCP port for the fallback probe")
	cmd.Flags().Bool("privileged", false, "Use raw ICMP sockets (requires root or CAP_NET_RAW)")
	cmd.Flags().Bool("no-fallback", false, "Fail instead of falling back to TCP")
	output.AddFlag(cmd)

	return cmd
}

func runPing(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	port, _ := cmd.Flags().GetInt("port")
	privileged, _ := cmd.Flags().GetBool("privileged")
	noFallback, _ := cmd.Flags().GetBool("no-fallback")
	if count <= 0 {
		return errors.New("count must be greater than 0")
	}

	opts := netcheck.Options{
		Count:      count,
		Timeout:    timeout,
		Port:       port,
		Privileged: privileged,
		NoFallback: noFallback,
	}

	var res netcheck.Result
	err = output.Spin(cmd, "Pinging "+args[0]+"...", func() error {
		var pingErr error
		res, pingErr = netcheck.Ping(cmd.Context(), args[0], opts)
		return pingErr
	})
	if err != nil && !errors.Is(err, netcheck.ErrUnreachable) {
		return err
	}

	if format == output.JSON {
		if encErr := output.PrintJSON(cmd, toPingOutput(res)); encErr != nil {
			return encErr
		}
		return err
	}

	printPing(cmd, res)
	return err
}

func toPingOutput(r netcheck.Result) pingOutput {
	return pingOutput{
		Host:     r.Host,
		Addr:     r.Addr,
		Method:   string(r.Method),
		Sent:     r.Sent,
		Received: r.Received,
		LossPct:  r.Loss(),
		MinMs:    millis(r.Min),
		AvgMs:    millis(r.Avg),
		MaxMs:    millis(r.Max),
		Rating:   rating(r),
	}
}

func printPing(cmd *cobra.Command, r netcheck.Result) {
	out := cmd.OutOrStdout()
	addr := r.Addr
	if addr == "" {
		addr = "unresolved"
	}
	fmt.Fprintf(out, "%s (%s) via %s\n", r.Host, addr, r.Method)
	fmt.Fprintf(out, "  %d sent, %d received, %.0f%% loss\n", r.Sent, r.Received, r.Loss())
	if !r.Reachable() {
		fmt.Fprintln(out, "  Host did not respond.")
		return
	}
	fmt.Fprintf(out, "  min %s  avg %s  max %s\n",
		metrics.FormatMillis(millis(r.Min)),
		metrics.FormatMillis(millis(r.Avg)),
		metrics.FormatMillis(millis(r.Max)))
	fmt.Fprintf(out, "  Rating: %s\n", rating(r))
}

// rating names the latency class the way the dashboard colours it.
func rating(r netcheck.Result) string {
	switch r.Level() {
	case metrics.LevelOK:
		return "good"
	case metrics.LevelWarning:
		return "fair"
	default:
		if !r.Reachable() {
			return "unreachable"
		}
		return "poor"
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
