package dashboard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/tsm/internal/app"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the live dashboard",
		Long: `Open a full-screen dashboard that keeps servers, websites and their
live stats refreshed.

Lists and summaries refresh every refresh-interval; live stats, processes
and containers every live-refresh-interval (see tsm config list). When no
session is stored the dashboard opens on a login form.

Keys: o, s and w switch between overview, servers and websites; enter
opens the selected row; r refreshes; L logs out; q quits.

Examples:
  tsm dashboard
  tsm dashboard --page websites`,
		Args:         cobra.NoArgs,
		RunE:         runDashboard,
		SilenceUsage: true,
	}

	cmd.Flags().String("page", "overview", "Section to open first: overview, servers or websites")

	return cmd
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the dashboard needs an interactive terminal")
	}

	pageFlag, _ := cmd.Flags().GetString("page")
	page, err := parsePage(pageFlag)
	if err != nil {
		return err
	}

	a, err := app.Load(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	polling := querycache.New(querycache.WithLogger(a.Logger))
	defer polling.Close()

	svc := monitor.New(a.Client(), monitor.WithInvalidator(invalidator{app: a, polling: polling}))

	return tui.Run(tui.Options{
		Session:  a.Sessions,
		Monitor:  svc,
		Cache:    polling,
		Config:   a.Config,
		Logger:   a.Logger,
		Recorder: auditlog.DefaultRecorder(a.Logger),
		OnLogout: func() {
			if err := a.Cache.Clear(); err != nil {
				a.Logger.Warn("failed to clear response cache", "error", err)
			}
		},
		Start: page,
	})
}

func parsePage(s string) (tui.Page, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overview":
		return tui.PageOverview, nil
	case "servers", "server":
		return tui.PageServers, nil
	case "websites", "website":
		return tui.PageWebsites, nil
	default:
		return tui.PageOverview, fmt.Errorf("unknown page %q (use overview, servers or websites)", s)
	}
}

// invalidator forwards dashboard writes to the polling cache and drops the
// matching CLI responses of the signed-in account.
type invalidator struct {
	app     *app.App
	polling *querycache.Cache
}

func (i invalidator) InvalidatePrefix(prefix string) {
	i.polling.InvalidatePrefix(prefix)
	if sess, ok := i.app.Sessions.Current(); ok {
		if err := i.app.Cache.Scoped(sess.User.Email).InvalidatePrefix(prefix); err != nil {
			i.app.Logger.Debug("failed to invalidate response cache", "prefix", prefix, "error", err)
		}
	}
}
