package website

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/util"

	"github.com/spf13/cobra"
)

func AddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>...",
		Short: "Start monitoring one or more websites",
		Long: `Start monitoring websites. Each URL must be an absolute http:// or
https:// URL.

Examples:
  tsm website add https://example.com
  tsm website add https://example.com https://status.example.com/health`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runAdd,
		SilenceUsage: true,
		Annotations:  map[string]string{auditlog.Annotation: "true"},
	}

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	urls := make([]string, 0, len(args))
	for _, arg := range args {
		if u := strings.TrimSpace(arg); u != "" {
			urls = append(urls, u)
		}
	}
	if err := util.ValidateWebsites(domain.AddWebsitesOpts{URLs: urls}); err != nil {
		return err
	}

	a, svc, sess, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Account:      sess.User.Email,
		ResourceType: "website",
		ResourceName: strings.Join(urls, " "),
	}))

	err = output.Spin(cmd, "Adding websites...", func() error {
		return svc.AddWebsites(cmd.Context(), urls)
	})
	if err != nil {
		return fmt.Errorf("failed to add websites: %w", err)
	}

	for _, u := range urls {
		fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s\n", u)
	}
	return nil
}
