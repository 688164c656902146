package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"
	"nathanbeddoewebdev/tsm/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type websitesAddedMsg struct {
	urls []string
	err  error
}

type websiteDeletedMsg struct {
	website domain.Website
	err     error
}

type websitesView struct {
	env *env

	details *query
	cursor  int

	modal   *modal
	urls    string
	confirm bool
}

func newWebsitesView(e *env) *websitesView {
	return &websitesView{
		env:     e,
		details: e.observe(monitor.KeyWebsiteDetails, querycache.Fetch(e.opts.Monitor.ListWebsiteDetails), e.listOpts()),
	}
}

func (v *websitesView) list() []domain.WebsiteDetail {
	details, _ := queryData[[]domain.WebsiteDetail](v.details)
	return details
}

func (v *websitesView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if v.details.apply(msg) {
			v.cursor = components.ClampCursor(v.cursor, len(v.list()))
		}
		return v, nil

	case websitesAddedMsg:
		if msg.err != nil {
			return v, setStatus("Failed to add websites: "+describeErr(msg.err), true)
		}
		return v, setStatus(fmt.Sprintf("Monitoring %d new website(s).", len(msg.urls)), false)

	case websiteDeletedMsg:
		if msg.err != nil {
			return v, setStatus(fmt.Sprintf("Failed to delete %s: %s", msg.website.URL, describeErr(msg.err)), true)
		}
		return v, setStatus(fmt.Sprintf("Stopped monitoring %s.", msg.website.URL), false)
	}

	if v.modal != nil {
		done, cmd := v.modal.update(msg)
		if done {
			v.modal = nil
		}
		return v, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		return v.handleKey(k)
	}
	return v, nil
}

func (v *websitesView) handleKey(msg tea.KeyMsg) (view, tea.Cmd) {
	details := v.list()
	if c, ok := components.MoveCursor(v.cursor, len(details), msg.String()); ok {
		v.cursor = c
		return v, nil
	}

	switch msg.String() {
	case "r":
		v.details.refetch()
	case "enter":
		if len(details) > 0 {
			website := details[v.cursor].Info
			return v, func() tea.Msg { return openWebsiteMsg{website: website} }
		}
	case "a", "n":
		return v, v.openAdd()
	case "d":
		if len(details) > 0 {
			return v, v.openDelete(details[v.cursor].Info)
		}
	}
	return v, nil
}

// parseURLList splits a block of text into URLs, one per line or
// separated by commas or spaces.
func parseURLList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func validateURLList(s string) error {
	return util.ValidateWebsites(domain.AddWebsitesOpts{URLs: parseURLList(s)})
}

func (v *websitesView) openAdd() tea.Cmd {
	v.urls = ""
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("URLs").
				Description("http(s) URLs separated by spaces, or one per line (alt+enter).").
				Placeholder("https://example.com").
				Lines(5).
				Value(&v.urls).
				Validate(validateURLList),
		),
	)
	v.modal = newModal("Add websites", form, func() tea.Cmd {
		urls := parseURLList(v.urls)
		return tea.Batch(
			setStatus(fmt.Sprintf("Adding %d website(s)...", len(urls)), false),
			addWebsitesCmd(v.env, urls),
		)
	})
	return v.modal.init()
}

func addWebsitesCmd(e *env, urls []string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := e.opts.Monitor.AddWebsites(context.Background(), urls)
		e.record("website add", auditlog.Metadata{
			ResourceType: "website",
			ResourceName: strings.Join(urls, ","),
		}, start, err)
		return websitesAddedMsg{urls: urls, err: err}
	}
}

func (v *websitesView) openDelete(website domain.Website) tea.Cmd {
	v.confirm = false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Stop monitoring %s?", website.URL)).
				Description("Uptime history for this site is removed.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&v.confirm),
		),
	)
	v.modal = newModal("Delete website", form, func() tea.Cmd {
		if !v.confirm {
			return nil
		}
		return tea.Batch(
			setStatus("Deleting "+website.URL+"...", false),
			deleteWebsiteCmd(v.env, website),
		)
	})
	return v.modal.init()
}

func deleteWebsiteCmd(e *env, website domain.Website) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := e.opts.Monitor.DeleteWebsite(context.Background(), website.ID)
		e.record("website delete", auditlog.Metadata{
			ResourceType: "website",
			ResourceID:   website.ID.String(),
			ResourceName: website.URL,
		}, start, err)
		return websiteDeletedMsg{website: website, err: err}
	}
}

func (v *websitesView) render(width, height int) string {
	if v.modal != nil {
		return v.modal.render(width, height)
	}
	if v.details.loading() {
		return components.Loading(width, height, v.env.spinnerView, "Loading websites...")
	}
	if err := v.details.failed(); err != nil {
		return components.ErrorPanel(width, height, errors.New(describeErr(err)))
	}

	details := v.list()
	if len(details) == 0 {
		return components.Empty(width, height, "No websites are being monitored.", "Press a to add some.")
	}

	cols := []components.Column{
		{Title: "URL", Width: 30, Flex: true},
		{Title: "STATUS", Width: 10},
		{Title: "AVG RESPONSE", Width: 14},
		{Title: "UPTIME 24H", Width: 12},
		{Title: "SSL", Width: 22},
	}
	rows := make([][]components.Cell, len(details))
	for i, d := range details {
		rows[i] = websiteRow(summarizeWebsite(d))
	}

	footer := v.footer()
	table := components.Table(width, height-lipgloss.Height(footer)-1, cols, rows, v.cursor)
	return lipgloss.JoinVertical(lipgloss.Left, table, "", footer)
}

func websiteRow(s websiteSummary) []components.Cell {
	status := components.Cell{Text: "no data", Color: styles.Gray}
	if s.Reporting > 0 {
		status = components.Cell{Text: fmt.Sprintf("%d/%d up", s.Up, s.Reporting), Color: styles.LevelColor(s.Level())}
	}

	avg := components.Cell{Text: "N/A", Color: styles.Gray}
	if s.HasAvg {
		avg = components.Cell{Text: metrics.FormatMillis(s.AvgMs), Color: styles.LevelColor(metrics.ClassifyLatency(s.AvgMs))}
	}

	ssl := components.Cell{Text: "none", Color: styles.Gray}
	if s.SSL != nil {
		days := s.SSL.DaysUntilExpiry
		ssl = components.Cell{
			Text:  fmt.Sprintf("%s (%dd)", metrics.ExpiryLabel(days), days),
			Color: styles.LevelColor(metrics.ClassifyExpiry(days)),
		}
	}

	return []components.Cell{
		{Text: s.URL},
		status,
		avg,
		{Text: metrics.FormatPercent(s.Uptime24h)},
		ssl,
	}
}

func (v *websitesView) footer() string {
	line := components.Count(len(v.list())) + " websites  " + components.Updated(v.details.snap.UpdatedAt, v.env.now())
	if v.details.snap.IsLoading() {
		line += "  " + v.env.spinnerView
	}
	if err := v.details.snap.Err; err != nil {
		line += "  " + styles.WarningText.Render("refresh failed: "+describeErr(err))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(line)
}

func (v *websitesView) bindings() []components.KeyBinding {
	if v.modal != nil {
		return nil
	}
	return []components.KeyBinding{
		{Key: "j/k", Desc: "navigate"},
		{Key: "enter", Desc: "details"},
		{Key: "a", Desc: "add"},
		{Key: "d", Desc: "delete"},
		{Key: "r", Desc: "refresh"},
	}
}

func (v *websitesView) breadcrumb() string { return "websites" }
func (v *websitesView) capturing() bool    { return v.modal != nil }
func (v *websitesView) close()             { v.details.close() }
