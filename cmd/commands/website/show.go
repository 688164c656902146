package website

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <website>",
		Short: "Show uptime and certificate details for a website",
		Long: `Show a website's latest check from each location, its 24h uptime,
hourly response times and its SSL certificate.

Examples:
  tsm website show 7
  tsm website show https://example.com -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, svc, _, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	site, err := resolve(cmd, svc, args[0])
	if err != nil {
		return err
	}

	var detail *domain.WebsiteDetail
	err = output.Spin(cmd, "Fetching website...", func() error {
		var getErr error
		detail, getErr = svc.GetWebsite(cmd.Context(), site.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch website: %w", err)
	}
	if detail.Info.URL == "" {
		detail.Info = *site
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, detail)
	}

	printDetail(cmd, detail)
	return nil
}

func printDetail(cmd *cobra.Command, d *domain.WebsiteDetail) {
	out := cmd.OutOrStdout()
	s := summarize(*d)

	fmt.Fprintf(out, "%s (ID: %s)\n", d.Info.URL, d.Info.ID)
	fmt.Fprintf(out, "  Status:      %s, %d of %d locations up\n", s.Status, s.Up, s.Reporting)
	fmt.Fprintf(out, "  Average:     %s\n", s.avg())
	fmt.Fprintf(out, "  Uptime 24h:  %s\n", metrics.FormatPercent(s.Uptime24h))
	if !d.Info.CreatedAt.IsZero() {
		fmt.Fprintf(out, "  Monitored:   since %s\n", d.Info.CreatedAt.Local().Format("2006-01-02"))
	}

	fmt.Fprintln(out)
	w := output.NewTable(out, "LOCATION", "STATUS", "CODE", "RESPONSE", "CHECKED")
	for _, loc := range domain.Locations {
		check, ok := d.LatestUptime[loc]
		if !ok {
			fmt.Fprintf(w, "%s\tno data\t-\t-\t-\n", locationName(loc))
			continue
		}
		state := "down"
		if check.IsUp {
			state = "up"
		}
		checked := "-"
		if !check.CheckedAt.IsZero() {
			checked = humanize.Time(check.CheckedAt.Time)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			locationName(loc),
			state,
			check.StatusCode,
			metrics.FormatMillis(check.ResponseTimeMs),
			checked,
		)
	}
	w.Flush()

	fmt.Fprintln(out)
	printCertificate(cmd, d.SSL)
	printResponseTimes(cmd, d.Graph.ResponseTimes)
}

func printCertificate(cmd *cobra.Command, ssl *domain.SslCertificate) {
	out := cmd.OutOrStdout()
	if ssl == nil {
		fmt.Fprintln(out, "Certificate: not available")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Certificate:")
	fmt.Fprintf(w, "  Issuer:\t%s\n", ssl.IssuedBy)
	if !ssl.ExpiryDate.IsZero() {
		fmt.Fprintf(w, "  Expires:\t%s (%s, %d days)\n",
			ssl.ExpiryDate.Local().Format("2006-01-02"),
			metrics.ExpiryLabel(ssl.DaysUntilExpiry),
			ssl.DaysUntilExpiry)
	}
	if ssl.Protocol != "" {
		fmt.Fprintf(w, "  Protocol:\t%s\n", ssl.Protocol)
	}
	if ssl.Grade != "" {
		fmt.Fprintf(w, "  Grade:\t%s (%s)\n", ssl.Grade, metrics.GradeLevel(ssl.Grade))
	}
	w.Flush()
}

// printResponseTimes prints the hourly average response time per location.
func printResponseTimes(cmd *cobra.Command, samples map[string][]domain.ResponseSample) {
	byLocation := metrics.DefaultBucketer.BucketResponseTimes(samples)
	if len(byLocation) == 0 {
		return
	}

	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nResponse times (hourly):")
	for _, loc := range locations {
		values := metrics.Column(byLocation[loc], 0)
		lo, hi, sum := values[0], values[0], 0.0
		for _, v := range values {
			lo = min(lo, v)
			hi = max(hi, v)
			sum += v
		}
		fmt.Fprintf(out, "  %-8s %d hours, avg %s, min %s, max %s\n",
			locationName(loc), len(values),
			metrics.FormatMillis(sum/float64(len(values))),
			metrics.FormatMillis(lo), metrics.FormatMillis(hi))
	}
}
