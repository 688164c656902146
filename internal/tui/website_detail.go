package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/netcheck"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pingResultMsg struct {
	target string
	result netcheck.Result
	err    error
}

// websiteDetailView shows one website's latest checks per location, its
// certificate and the 24h response times.
type websiteDetailView struct {
	env     *env
	website domain.Website

	detail   *query
	response map[string][]metrics.Bucket

	viewport viewport.Model

	pinging    bool
	cancelPing context.CancelFunc
	ping       *pingResultMsg
}

func newWebsiteDetailView(e *env, website domain.Website) *websiteDetailView {
	mon := e.opts.Monitor
	id := website.ID

	vp := viewport.New(0, 0)
	vp.KeyMap = detailViewportKeyMap()

	v := &websiteDetailView{env: e, website: website, viewport: vp}
	v.detail = e.observe(monitor.WebsiteKey(id), querycache.Fetch(func(ctx context.Context) (*domain.WebsiteDetail, error) {
		return mon.GetWebsite(ctx, id)
	}), e.listOpts())
	v.refreshResponse()
	return v
}

func (v *websiteDetailView) data() *domain.WebsiteDetail {
	d, _ := queryData[*domain.WebsiteDetail](v.detail)
	return d
}

func (v *websiteDetailView) refreshResponse() {
	if d := v.data(); d != nil {
		v.response = metrics.DefaultBucketer.BucketResponseTimes(d.Graph.ResponseTimes)
		if v.website.URL == "" {
			v.website = d.Info
		}
	}
}

func pingCmd(ctx context.Context, target string) tea.Cmd {
	return func() tea.Msg {
		res, err := netcheck.Ping(ctx, target, netcheck.Options{})
		return pingResultMsg{target: target, result: res, err: err}
	}
}

func (v *websiteDetailView) startPing() tea.Cmd {
	if v.pinging || v.website.URL == "" {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.pinging = true
	v.cancelPing = cancel
	return pingCmd(ctx, v.website.URL)
}

func (v *websiteDetailView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if v.detail.apply(msg) {
			v.refreshResponse()
		}
		return v, nil

	case pingResultMsg:
		v.pinging = false
		if v.cancelPing != nil {
			v.cancelPing()
			v.cancelPing = nil
		}
		v.ping = &msg
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "backspace":
			return v, func() tea.Msg { return backMsg{} }
		case "r":
			v.detail.refetch()
			return v, nil
		case "p":
			return v, v.startPing()
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *websiteDetailView) render(width, height int) string {
	var content string
	switch {
	case v.detail.loading():
		return components.Loading(width, height, v.env.spinnerView, "Loading "+v.website.URL+"...")
	case v.detail.failed() != nil:
		return components.ErrorPanel(width, height, errors.New(describeErr(v.detail.failed())))
	default:
		content = v.renderDetail(width - 4)
	}

	v.viewport.Width = width
	v.viewport.Height = height
	v.viewport.SetContent(lipgloss.NewStyle().Padding(0, 2).Render(content))
	return v.viewport.View()
}

func (v *websiteDetailView) renderDetail(width int) string {
	d := v.data()
	if d == nil {
		return styles.MutedText.Render("No data for this website.")
	}
	s := summarizeWebsite(*d)

	title := styles.LevelStyle(s.Level()).Render("● ") + styles.Title.Render(d.Info.URL)
	meta := styles.MutedText.Render(fmt.Sprintf("#%s  added %s  %s uptime (24h)",
		d.Info.ID, formatTime(d.Info.CreatedAt), metrics.FormatPercent(s.Uptime24h)))

	twoColumns := width >= 100
	cardWidth := width
	if twoColumns {
		cardWidth = (width - 2) / 2
	}
	checks := styles.Card.Width(cardWidth).Render(locationChecks(*d, s))
	ssl := styles.Card.Width(cardWidth).Render(certificate(d.SSL))
	var cards string
	if twoColumns {
		cards = lipgloss.JoinHorizontal(lipgloss.Top, checks, "  ", ssl)
	} else {
		cards = lipgloss.JoinVertical(lipgloss.Left, checks, ssl)
	}

	return joinNonEmpty(
		title, meta, "",
		cards, "",
		v.responseChart(width), "",
		v.renderPing(),
		staleNote(v.detail),
		components.Updated(v.detail.snap.UpdatedAt, v.env.now()),
	)
}

func locationChecks(d domain.WebsiteDetail, s websiteSummary) string {
	lines := []string{styles.Label.Render("Latest checks"), ""}
	for _, loc := range domain.Locations {
		check, ok := d.LatestUptime[loc]
		name := styles.Label.Width(10).Render(locationName(loc))
		if !ok {
			lines = append(lines, name+styles.MutedText.Render("no report"))
			continue
		}
		latency := styles.LevelStyle(metrics.ClassifyLatency(check.ResponseTimeMs)).
			Render(fmt.Sprintf("%8s", metrics.FormatMillis(check.ResponseTimeMs)))
		lines = append(lines, fmt.Sprintf("%s%s  %s  %s  %s", name, styles.UpDown(check.IsUp),
			styles.Value.Render(fmt.Sprintf("%3d", check.StatusCode)), latency,
			styles.MutedText.Render(formatTime(check.CheckedAt))))
	}

	avg := "N/A"
	if s.HasAvg {
		avg = styles.LevelStyle(metrics.ClassifyLatency(s.AvgMs)).Render(metrics.FormatMillis(s.AvgMs))
	}
	lines = append(lines, "", styles.Label.Width(10).Render("Average")+avg)
	return strings.Join(lines, "\n")
}

func locationName(loc string) string {
	if loc == "" {
		return loc
	}
	return loc[:1] + strings.ToLower(loc[1:])
}

func certificate(c *domain.SslCertificate) string {
	lines := []string{styles.Label.Render("SSL certificate"), ""}
	if c == nil {
		return strings.Join(append(lines, styles.MutedText.Render("No certificate information.")), "\n")
	}

	expiry := styles.LevelStyle(metrics.ClassifyExpiry(c.DaysUntilExpiry)).
		Render(fmt.Sprintf("%s, %d days", metrics.ExpiryLabel(c.DaysUntilExpiry), c.DaysUntilExpiry))
	lines = append(lines,
		components.Field("Issued by", c.IssuedBy, 12),
		components.Field("Expires", formatTime(c.ExpiryDate), 12),
		styles.Label.Width(12).Render("Status")+expiry,
		components.Field("Protocol", c.Protocol, 12),
	)
	if c.Grade != "" {
		lines = append(lines, styles.Label.Width(12).Render("Grade")+
			styles.LevelStyle(metrics.GradeLevel(c.Grade)).Render(c.Grade))
	}
	return strings.Join(lines, "\n")
}

func (v *websiteDetailView) responseChart(width int) string {
	locs := make([]string, 0, len(v.response))
	for loc := range v.response {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	series := make([]components.Series, 0, len(locs))
	for _, loc := range locs {
		series = append(series, components.Series{
			Name: locationName(loc),
			Data: metrics.Column(v.response[loc], 0),
		})
	}
	return components.Chart("Response time (24h)", width, metrics.FormatMillis, series...)
}

func (v *websiteDetailView) renderPing() string {
	if v.pinging {
		return styles.MutedText.Render(v.env.spinnerView + "  Pinging " + v.website.URL + "...")
	}
	if v.ping == nil {
		return ""
	}

	label := styles.Label.Render("Ping ")
	r := v.ping.result
	if v.ping.err != nil && !r.Reachable() {
		return label + styles.ErrorText.Render(v.ping.err.Error())
	}
	stats := fmt.Sprintf("%s via %s: %d/%d replies, %.0f%% loss, min %s avg %s max %s",
		r.Addr, r.Method, r.Received, r.Sent, r.Loss(),
		metrics.FormatMillis(msOf(r.Min)), metrics.FormatMillis(msOf(r.Avg)), metrics.FormatMillis(msOf(r.Max)))
	return label + styles.LevelStyle(r.Level()).Render(stats)
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (v *websiteDetailView) bindings() []components.KeyBinding {
	return []components.KeyBinding{
		{Key: "j/k", Desc: "scroll"},
		{Key: "p", Desc: "ping"},
		{Key: "r", Desc: "refresh"},
		{Key: "esc", Desc: "back"},
	}
}

func (v *websiteDetailView) breadcrumb() string { return "websites > " + v.website.URL }
func (v *websiteDetailView) capturing() bool    { return false }

func (v *websiteDetailView) close() {
	v.detail.close()
	if v.cancelPing != nil {
		v.cancelPing()
	}
}
