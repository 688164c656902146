package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// overviewView is the landing page: account status, server count and a
// health summary of monitored websites.
type overviewView struct {
	env *env

	status   *query
	servers  *query
	websites *query
}

func newOverviewView(e *env) *overviewView {
	mon := e.opts.Monitor
	return &overviewView{
		env:      e,
		status:   e.observe(monitor.KeyStatus, querycache.Fetch(mon.GetStatus), e.listOpts()),
		servers:  e.observe(monitor.KeyServers, querycache.Fetch(mon.ListServers), e.listOpts()),
		websites: e.observe(monitor.KeyWebsiteDetails, querycache.Fetch(mon.ListWebsiteDetails), e.listOpts()),
	}
}

func (v *overviewView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		v.status.apply(msg)
		v.servers.apply(msg)
		v.websites.apply(msg)
	case tea.KeyMsg:
		if msg.String() == "r" {
			v.status.refetch()
			v.servers.refetch()
			v.websites.refetch()
		}
	}
	return v, nil
}

func (v *overviewView) render(width, height int) string {
	if v.servers.loading() && v.websites.loading() {
		return components.Loading(width, height, v.env.spinnerView, "Loading overview...")
	}

	cardWidth := max(min((width-8)/3, 40), 24)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		v.statusCard(cardWidth), " ",
		v.serversCard(cardWidth), " ",
		v.websitesCard(cardWidth),
	)

	sections := []string{cards, "", v.websiteList(width - 4)}
	return lipgloss.NewStyle().Padding(1, 2).MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (v *overviewView) cardBody(q *query, title string, body func() string) string {
	lines := []string{styles.Label.Render(title), ""}
	switch {
	case q.loading():
		lines = append(lines, styles.MutedText.Render(v.env.spinnerView+" loading"))
	case q.failed() != nil:
		lines = append(lines, styles.ErrorText.Render(describeErr(q.failed())))
	default:
		lines = append(lines, body())
		if q.snap.Err != nil {
			lines = append(lines, styles.WarningText.Render("refresh failed: "+describeErr(q.snap.Err)))
		}
		lines = append(lines, "", components.Updated(q.snap.UpdatedAt, v.env.now()))
	}
	return strings.Join(lines, "\n")
}

func (v *overviewView) statusCard(width int) string {
	body := v.cardBody(v.status, "Status", func() string {
		st, ok := queryData[*domain.StatusSummary](v.status)
		if !ok || st == nil {
			return styles.MutedText.Render("no status")
		}
		level := metrics.LevelOK
		if st.Online < st.Total {
			level = metrics.LevelWarning
		}
		if st.Total > 0 && st.Online == 0 {
			level = metrics.LevelCritical
		}
		text := st.StatusText
		if text == "" {
			text = "-"
		}
		return styles.LevelStyle(level).Render(fmt.Sprintf("%d / %d online", st.Online, st.Total)) +
			"\n" + styles.Value.Render(text)
	})
	return styles.Card.Width(width).Render(body)
}

func (v *overviewView) serversCard(width int) string {
	body := v.cardBody(v.servers, "Servers", func() string {
		servers, _ := queryData[[]domain.Server](v.servers)
		return styles.Title.Render(components.Count(len(servers))) + styles.MutedText.Render(" monitored")
	})
	return styles.Card.Width(width).Render(body)
}

func (v *overviewView) websitesCard(width int) string {
	body := v.cardBody(v.websites, "Websites", func() string {
		details, _ := queryData[[]domain.WebsiteDetail](v.websites)
		f := summarizeFleet(details)

		lines := []string{
			styles.Title.Render(components.Count(f.Total)) + styles.MutedText.Render(" monitored"),
			styles.LevelStyle(metrics.LevelOK).Render(fmt.Sprintf("%d up", f.AllUp)) + "  " +
				styles.LevelStyle(metrics.LevelCritical).Render(fmt.Sprintf("%d down", f.Down)),
		}
		if f.HasAvg {
			lines = append(lines, styles.MutedText.Render("avg response ")+
				styles.LevelStyle(metrics.ClassifyLatency(f.AvgMs)).Render(metrics.FormatMillis(f.AvgMs)))
		}
		if f.SSLExpiring+f.SSLExpired > 0 {
			lines = append(lines, styles.WarningText.Render(
				fmt.Sprintf("%d certificate(s) expiring, %d expired", f.SSLExpiring, f.SSLExpired)))
		}
		return strings.Join(lines, "\n")
	})
	return styles.Card.Width(width).Render(body)
}

// websiteList shows every site that is not fully healthy.
func (v *overviewView) websiteList(width int) string {
	details, ok := queryData[[]domain.WebsiteDetail](v.websites)
	if !ok {
		return ""
	}

	var rows []string
	for _, d := range details {
		s := summarizeWebsite(d)
		if s.Level() == metrics.LevelOK {
			continue
		}
		avg := "N/A"
		if s.HasAvg {
			avg = metrics.FormatMillis(s.AvgMs)
		}
		row := fmt.Sprintf("%s  %-40s  %d/%d up  %s",
			styles.LevelStyle(s.Level()).Render("●"), components.Truncate(s.URL, 40), s.Up, s.Reporting, avg)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return styles.SuccessText.Render("All websites are healthy.")
	}
	return styles.Label.Render("Needs attention") + "\n" +
		components.Truncate(strings.Join(rows, "\n"), width*len(rows))
}

func (v *overviewView) bindings() []components.KeyBinding {
	return []components.KeyBinding{{Key: "r", Desc: "refresh"}}
}

func (v *overviewView) breadcrumb() string { return "overview" }
func (v *overviewView) capturing() bool    { return false }

func (v *overviewView) close() {
	v.status.close()
	v.servers.close()
	v.websites.close()
}
