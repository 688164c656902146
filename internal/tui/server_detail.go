package tui

import (
	"context"
	"strconv"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailTab int

const (
	tabOverview detailTab = iota
	tabProcesses
	tabContainers
	tabNetwork
	tabStorage
	tabHistory
)

var detailTabLabels = []string{"overview", "processes", "containers", "network", "storage", "history"}

func (t detailTab) String() string { return detailTabLabels[t] }

// usesLive reports whether the tab shows live stats.
func (t detailTab) usesLive() bool {
	return t == tabOverview || t == tabNetwork || t == tabStorage
}

// serverDetailView shows one server. The 24h history is polled at the list
// interval; live stats, processes and containers at the live interval and
// only while a tab that shows them is active.
type serverDetailView struct {
	env    *env
	server domain.Server
	tab    detailTab

	detail     *query
	live       *query
	procs      *query
	containers *query

	// history is detail's 24h history bucketed by hour, recomputed when
	// detail changes.
	history metrics.HistorySeries

	viewport viewport.Model

	procTable      table.Model
	containerTable table.Model
	filter         textinput.Model
	filtering      bool
	sortBy         metrics.ProcessSort
}

// detailViewportKeyMap returns a viewport KeyMap that leaves letters other
// than j/k free for the view's own bindings.
func detailViewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "½ page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "½ page down"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithDisabled(),
		),
		Right: key.NewBinding(
			key.WithDisabled(),
		),
	}
}

func newDataTable() table.Model {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.DimGray).
		BorderBottom(true).
		Foreground(styles.Gray).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.White).
		Background(styles.DarkBlue).
		Bold(true)
	t.SetStyles(s)
	return t
}

func newServerDetailView(e *env, server domain.Server) *serverDetailView {
	mon := e.opts.Monitor
	id := server.ID

	vp := viewport.New(0, 0)
	vp.KeyMap = detailViewportKeyMap()

	filter := textinput.New()
	filter.Placeholder = "filter by name, user or command"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	v := &serverDetailView{
		env:            e,
		server:         server,
		viewport:       vp,
		procTable:      newDataTable(),
		containerTable: newDataTable(),
		filter:         filter,
	}

	v.detail = e.observe(monitor.ServerKey(id), querycache.Fetch(func(ctx context.Context) (*domain.ServerDetail, error) {
		return mon.GetServer(ctx, id)
	}), e.listOpts())
	v.live = e.observe(monitor.LiveStatsKey(id), querycache.Fetch(func(ctx context.Context) (*domain.LiveStats, error) {
		return mon.GetLiveStats(ctx, id)
	}), e.liveOpts(true))
	v.procs = e.observe(monitor.ProcessesKey(id), querycache.Fetch(func(ctx context.Context) (*domain.ProcessList, error) {
		return mon.GetProcesses(ctx, id)
	}), e.liveOpts(false))
	v.containers = e.observe(monitor.ContainersKey(id), querycache.Fetch(func(ctx context.Context) (*domain.ContainerList, error) {
		return mon.GetContainers(ctx, id)
	}), e.liveOpts(false))

	v.refreshHistory()
	return v
}

func (v *serverDetailView) setTab(t detailTab) {
	if t == v.tab {
		return
	}
	v.tab = t
	v.live.setEnabled(t.usesLive())
	v.procs.setEnabled(t == tabProcesses)
	v.containers.setEnabled(t == tabContainers)
	v.viewport.GotoTop()
	v.refreshProcesses()
	v.refreshContainers()
}

func (v *serverDetailView) refreshHistory() {
	if d, ok := queryData[*domain.ServerDetail](v.detail); ok && d != nil {
		v.history = metrics.DefaultBucketer.BucketHistory(d.History)
		if v.server.Name == "" {
			v.server = d.Info
		}
	}
}

func (v *serverDetailView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		switch {
		case v.detail.apply(msg):
			v.refreshHistory()
		case v.live.apply(msg):
		case v.procs.apply(msg):
			v.refreshProcesses()
		case v.containers.apply(msg):
			v.refreshContainers()
		}
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			return v.updateFilter(msg)
		}
		return v.handleKey(msg)

	case tea.MouseMsg:
		if v.tab != tabProcesses && v.tab != tabContainers {
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}
	}

	if v.filtering {
		var cmd tea.Cmd
		v.filter, cmd = v.filter.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *serverDetailView) updateFilter(msg tea.KeyMsg) (view, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.filter.SetValue("")
		fallthrough
	case "enter":
		v.filtering = false
		v.filter.Blur()
		v.refreshProcesses()
		return v, nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.refreshProcesses()
	return v, cmd
}

func (v *serverDetailView) handleKey(msg tea.KeyMsg) (view, tea.Cmd) {
	switch s := msg.String(); s {
	case "esc", "backspace":
		return v, func() tea.Msg { return backMsg{} }
	case "tab":
		v.setTab((v.tab + 1) % detailTab(len(detailTabLabels)))
		return v, nil
	case "shift+tab":
		v.setTab((v.tab + detailTab(len(detailTabLabels)) - 1) % detailTab(len(detailTabLabels)))
		return v, nil
	case "1", "2", "3", "4", "5", "6":
		n, _ := strconv.Atoi(s)
		v.setTab(detailTab(n - 1))
		return v, nil
	case "r":
		v.detail.refetch()
		v.live.refetch()
		v.procs.refetch()
		v.containers.refetch()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.tab {
	case tabProcesses:
		switch msg.String() {
		case "/":
			v.filtering = true
			return v, v.filter.Focus()
		case "c":
			v.sortBy = metrics.SortByCPU
			v.refreshProcesses()
			return v, nil
		case "m":
			v.sortBy = metrics.SortByMemory
			v.refreshProcesses()
			return v, nil
		}
		v.procTable, cmd = v.procTable.Update(msg)
	case tabContainers:
		v.containerTable, cmd = v.containerTable.Update(msg)
	default:
		v.viewport, cmd = v.viewport.Update(msg)
	}
	return v, cmd
}

// visibleProcesses applies the filter and sort to the latest process list.
func (v *serverDetailView) visibleProcesses() []domain.Process {
	list, ok := queryData[*domain.ProcessList](v.procs)
	if !ok || list == nil {
		return nil
	}
	return metrics.FilterProcesses(list.Processes, v.filter.Value(), v.sortBy)
}

func (v *serverDetailView) refreshProcesses() {
	procs := v.visibleProcesses()
	rows := make([]table.Row, len(procs))
	for i, p := range procs {
		rows[i] = table.Row{
			strconv.Itoa(p.PID),
			p.Name,
			p.Username,
			metrics.FormatPercent(p.CPUPercent),
			metrics.FormatPercent(p.MemoryPercent),
			p.Status,
			p.Cmdline.String(),
		}
	}
	v.procTable.SetRows(rows)
}

func (v *serverDetailView) refreshContainers() {
	list, ok := queryData[*domain.ContainerList](v.containers)
	if !ok || list == nil {
		v.containerTable.SetRows(nil)
		return
	}
	rows := make([]table.Row, len(list.Containers))
	for i, c := range list.Containers {
		mem := metrics.FormatBytes(c.MemoryUsage)
		if c.MemoryLimit > 0 {
			mem += " / " + metrics.FormatBytes(c.MemoryLimit)
		}
		rows[i] = table.Row{
			c.Name,
			c.Image.String(),
			c.Status,
			c.Uptime.String(),
			metrics.FormatPercent(c.CPUPercent),
			mem,
		}
	}
	v.containerTable.SetRows(rows)
}

func (v *serverDetailView) render(width, height int) string {
	title := styles.Title.Render(v.server.Name) + styles.MutedText.Render("  #"+v.server.ID.String())
	tabs := components.Tabs(detailTabLabels, int(v.tab))
	head := lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, tabs))

	bodyH := max(height-lipgloss.Height(head)-1, 3)
	var body string
	switch v.tab {
	case tabProcesses:
		body = v.renderProcesses(width, bodyH)
	case tabContainers:
		body = v.renderContainers(width, bodyH)
	default:
		body = v.renderScrollable(width, bodyH)
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, "", body)
}

// renderScrollable lays a text tab into the viewport. The viewport keeps
// the last content so scroll keys in update clamp against it.
func (v *serverDetailView) renderScrollable(width, height int) string {
	var content string
	switch v.tab {
	case tabNetwork:
		content = v.renderNetwork(width - 4)
	case tabStorage:
		content = v.renderStorage(width - 4)
	case tabHistory:
		content = v.renderHistory(width - 4)
	default:
		content = v.renderOverview(width - 4)
	}

	v.viewport.Width = width
	v.viewport.Height = height
	v.viewport.SetContent(lipgloss.NewStyle().Padding(0, 2).Render(content))
	return v.viewport.View()
}

func (v *serverDetailView) bindings() []components.KeyBinding {
	if v.filtering {
		return []components.KeyBinding{
			{Key: "enter", Desc: "apply"},
			{Key: "esc", Desc: "clear"},
		}
	}
	b := []components.KeyBinding{
		{Key: "tab/1-6", Desc: "switch tab"},
		{Key: "j/k", Desc: "scroll"},
	}
	if v.tab == tabProcesses {
		b = append(b,
			components.KeyBinding{Key: "/", Desc: "filter"},
			components.KeyBinding{Key: "c/m", Desc: "sort by cpu/memory"},
		)
	}
	return append(b,
		components.KeyBinding{Key: "r", Desc: "refresh"},
		components.KeyBinding{Key: "esc", Desc: "back"},
	)
}

func (v *serverDetailView) breadcrumb() string {
	return "servers > " + v.server.Name + " > " + v.tab.String()
}

func (v *serverDetailView) capturing() bool { return v.filtering }

func (v *serverDetailView) close() {
	v.detail.close()
	v.live.close()
	v.procs.close()
	v.containers.close()
}
