package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const detailLabelWidth = 14

// pending renders the loading or error line shown when q has no data.
func (v *serverDetailView) pending(q *query, what string) string {
	switch {
	case q.loading():
		return styles.MutedText.Render(v.env.spinnerView + "  Loading " + what + "...")
	case q.failed() != nil:
		return styles.ErrorText.Render("Failed to load "+what+": "+describeErr(q.failed())) + "\n" +
			styles.MutedText.Render("Press r to retry.")
	}
	return ""
}

// staleNote warns that q is showing the last good data after a failure.
func staleNote(q *query) string {
	if q.snap.Err == nil || !q.snap.HasData {
		return ""
	}
	return styles.WarningText.Render("Refresh failed (" + describeErr(q.snap.Err) + "), showing last data.")
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// --- Overview ---

func (v *serverDetailView) renderOverview(width int) string {
	twoColumns := width >= 100
	cardWidth := width
	if twoColumns {
		cardWidth = (width - 2) / 2
	}

	info := styles.Card.Width(cardWidth).Render(v.infoCard())
	resources := styles.Card.Width(cardWidth).Render(v.resourcesCard(cardWidth - 6))

	var cards string
	if twoColumns {
		cards = lipgloss.JoinHorizontal(lipgloss.Top, info, "  ", resources)
	} else {
		cards = lipgloss.JoinVertical(lipgloss.Left, info, resources)
	}
	return joinNonEmpty(cards, staleNote(v.detail), staleNote(v.live),
		components.Updated(v.live.snap.UpdatedAt, v.env.now()))
}

func (v *serverDetailView) infoCard() string {
	s := v.server
	lines := []string{
		styles.Label.Render("Server"),
		"",
		components.Field("Name", s.Name, detailLabelWidth),
		components.Field("ID", s.ID.String(), detailLabelWidth),
		components.Field("Identifier", s.UniqueIdentifier, detailLabelWidth),
	}
	if s.Description != "" {
		lines = append(lines, components.Field("Description", s.Description, detailLabelWidth))
	}
	lines = append(lines, components.Field("Created", formatTime(s.CreatedAt), detailLabelWidth))

	if p := v.pending(v.live, "live stats"); p != "" {
		return strings.Join(append(lines, "", p), "\n")
	}
	live, _ := queryData[*domain.LiveStats](v.live)
	if live == nil {
		return strings.Join(lines, "\n")
	}
	lines = append(lines,
		components.Field("Uptime", live.Uptime.String(), detailLabelWidth),
		components.Field("Last report", formatTime(live.LastUpdated), detailLabelWidth),
		components.Field("Processes", fmt.Sprintf("%d total, %d running, %d sleeping",
			live.ProcTotal, live.ProcRunning, live.ProcSleeping), detailLabelWidth),
		components.Field("Threads", components.Count(live.ProcThreads), detailLabelWidth),
	)
	return strings.Join(lines, "\n")
}

func (v *serverDetailView) resourcesCard(width int) string {
	lines := []string{styles.Label.Render("Resources"), ""}
	sparkWidth := max(width-detailLabelWidth-10, 8)

	if p := v.pending(v.detail, "history"); p != "" {
		lines = append(lines, p)
	} else {
		cpu := metrics.Column(v.history.CPU, metrics.CPUTotal)
		mem := metrics.Column(v.history.Memory, metrics.MemoryPercent)
		lines = append(lines,
			usageLine("CPU", cpu, sparkWidth),
			usageLine("Memory", mem, sparkWidth),
		)
	}

	live, _ := queryData[*domain.LiveStats](v.live)
	if live != nil {
		st := metrics.TotalStorage(live.FileSystems)
		disk := components.Field("Disk", "", detailLabelWidth) +
			components.UsageBar(st.Percent(), max(sparkWidth-8, 4))
		lines = append(lines, disk,
			styles.MutedText.Render(strings.Repeat(" ", detailLabelWidth)+
				metrics.FormatBytes(st.Used)+" of "+metrics.FormatBytes(st.Size)))
		if st.Warnings > 0 {
			lines = append(lines, styles.WarningText.Render(
				fmt.Sprintf("%d disk(s) above %.0f%% used", st.Warnings, metrics.UsageCritical)))
		}

		net := metrics.TotalNetwork(live.Networks)
		lines = append(lines, components.Field("Network",
			"↑ "+metrics.FormatRate(net.BytesSentRate)+"  ↓ "+metrics.FormatRate(net.BytesRecvRate), detailLabelWidth))
	}
	return strings.Join(lines, "\n")
}

// usageLine renders "CPU  42.0%  ⣀⣤⣶" from an hourly percentage series.
func usageLine(label string, series []float64, sparkWidth int) string {
	if len(series) == 0 {
		return components.Field(label, "N/A", detailLabelWidth)
	}
	latest := series[len(series)-1]
	value := styles.LevelStyle(metrics.ClassifyUsage(latest)).Render(fmt.Sprintf("%6s", metrics.FormatPercent(latest)))
	return styles.Label.Width(detailLabelWidth).Render(label) + value + "  " +
		components.Sparkline(series, sparkWidth)
}

// --- Network ---

func (v *serverDetailView) renderNetwork(width int) string {
	var sections []string
	if p := v.pending(v.live, "network stats"); p != "" {
		sections = append(sections, p)
	} else if live, _ := queryData[*domain.LiveStats](v.live); live != nil {
		sections = append(sections, networkTable(live.Networks, width))
	}

	if p := v.pending(v.detail, "history"); p != "" {
		sections = append(sections, "", p)
	} else {
		sections = append(sections, "", components.Chart("Network traffic (24h)", width, metrics.FormatBytes,
			components.Series{Name: "sent", Data: metrics.Column(v.history.Network, metrics.NetworkSent)},
			components.Series{Name: "received", Data: metrics.Column(v.history.Network, metrics.NetworkRecv)},
		))
	}
	sections = append(sections, staleNote(v.live), components.Updated(v.live.snap.UpdatedAt, v.env.now()))
	return joinNonEmpty(sections...)
}

func networkTable(ifaces []domain.NetworkInterface, width int) string {
	if len(ifaces) == 0 {
		return styles.MutedText.Render("No network interfaces reported.")
	}
	nameWidth := max(min(width-60, 24), 10)
	row := func(name, sentRate, recvRate, sent, recv string) string {
		return fmt.Sprintf("%-*s %12s %12s %12s %12s", nameWidth, components.Truncate(name, nameWidth),
			sentRate, recvRate, sent, recv)
	}

	lines := []string{styles.TableHeader.UnsetPadding().Render(row("INTERFACE", "SENT/S", "RECV/S", "SENT", "RECEIVED"))}
	for _, n := range ifaces {
		name := n.Name
		if n.Alias != "" {
			name += " (" + n.Alias + ")"
		}
		lines = append(lines, row(name,
			metrics.FormatRate(n.BytesSentRate), metrics.FormatRate(n.BytesRecvRate),
			metrics.FormatBytes(n.BytesSent), metrics.FormatBytes(n.BytesRecv)))
	}
	t := metrics.TotalNetwork(ifaces)
	lines = append(lines, styles.Label.Render(row("total",
		metrics.FormatRate(t.BytesSentRate), metrics.FormatRate(t.BytesRecvRate),
		metrics.FormatBytes(t.BytesSent), metrics.FormatBytes(t.BytesRecv))))
	return strings.Join(lines, "\n")
}

// --- Storage ---

func (v *serverDetailView) renderStorage(width int) string {
	var sections []string
	if p := v.pending(v.live, "disk usage"); p != "" {
		sections = append(sections, p)
	} else if live, _ := queryData[*domain.LiveStats](v.live); live != nil {
		sections = append(sections, storageList(live.FileSystems, width))
	}

	if p := v.pending(v.detail, "history"); p != "" {
		sections = append(sections, "", p)
	} else {
		sections = append(sections, "", components.Chart("Disk I/O (24h)", width, metrics.FormatBytes,
			components.Series{Name: "read", Data: metrics.Column(v.history.DiskIO, metrics.DiskRead)},
			components.Series{Name: "write", Data: metrics.Column(v.history.DiskIO, metrics.DiskWrite)},
		))
	}
	sections = append(sections, staleNote(v.live), components.Updated(v.live.snap.UpdatedAt, v.env.now()))
	return joinNonEmpty(sections...)
}

func storageList(fs []domain.FileSystem, width int) string {
	if len(fs) == 0 {
		return styles.MutedText.Render("No filesystems reported.")
	}
	mountWidth := max(min(width-56, 30), 12)
	barWidth := 20

	var lines []string
	for _, f := range fs {
		mount := styles.Value.Width(mountWidth).Render(components.Truncate(f.MountPoint, mountWidth-1))
		detail := styles.MutedText.Render(fmt.Sprintf("  %s of %s  %s %s",
			metrics.FormatBytes(f.Used), metrics.FormatBytes(f.Size), f.DeviceName, f.FSType))
		lines = append(lines, mount+components.UsageBar(f.Percent, barWidth)+detail)
	}

	t := metrics.TotalStorage(fs)
	summary := fmt.Sprintf("%s used of %s, %s free", metrics.FormatBytes(t.Used), metrics.FormatBytes(t.Size),
		metrics.FormatBytes(t.Free))
	lines = append(lines, "", styles.Label.Render("Total ")+styles.Value.Render(summary))
	if t.Warnings > 0 {
		lines = append(lines, styles.WarningText.Render(
			fmt.Sprintf("%d filesystem(s) above %.0f%% used", t.Warnings, metrics.UsageCritical)))
	}
	return strings.Join(lines, "\n")
}

// --- History ---

func (v *serverDetailView) renderHistory(width int) string {
	if p := v.pending(v.detail, "history"); p != "" {
		return p
	}
	if v.history.Empty() {
		return styles.MutedText.Render("No history reported in the last 24 hours.")
	}
	return joinNonEmpty(
		components.Chart("CPU (24h)", width, metrics.FormatPercent,
			components.Series{Name: "total", Data: metrics.Column(v.history.CPU, metrics.CPUTotal)},
			components.Series{Name: "user", Data: metrics.Column(v.history.CPU, metrics.CPUUser)},
			components.Series{Name: "system", Data: metrics.Column(v.history.CPU, metrics.CPUSystem)},
			components.Series{Name: "iowait", Data: metrics.Column(v.history.CPU, metrics.CPUIOWait)},
		),
		"",
		components.Chart("Memory (24h)", width, metrics.FormatPercent,
			components.Series{Name: "used", Data: metrics.Column(v.history.Memory, metrics.MemoryPercent)},
		),
		staleNote(v.detail),
		components.Updated(v.detail.snap.UpdatedAt, v.env.now()),
	)
}

// --- Processes and containers ---

// tableColumns gives the flex column whatever width the fixed ones leave.
// Every cell carries one column of padding on each side.
func tableColumns(width int, cols []table.Column, flex int) []table.Column {
	used := 0
	for i, c := range cols {
		if i != flex {
			used += c.Width + 2
		}
	}
	cols[flex].Width = max(width-used-2, 10)
	return cols
}

func (v *serverDetailView) renderProcesses(width, height int) string {
	pad := lipgloss.NewStyle().Padding(0, 2)
	if p := v.pending(v.procs, "processes"); p != "" {
		return pad.Render(p)
	}

	list, _ := queryData[*domain.ProcessList](v.procs)
	var summary string
	if list != nil {
		summary = fmt.Sprintf("%d processes, %d running, %d sleeping, %d threads. Sorted by %s.",
			list.ProcTotal, list.ProcRunning, list.ProcSleeping, list.ProcThreads, v.sortBy)
	}

	head := []string{styles.MutedText.Render(summary)}
	if v.filtering || v.filter.Value() != "" {
		head = append(head, v.filter.View())
	}
	if note := staleNote(v.procs); note != "" {
		head = append(head, note)
	}
	top := pad.Render(strings.Join(head, "\n"))

	if len(v.procTable.Rows()) == 0 {
		msg := "No processes reported."
		if v.filter.Value() != "" {
			msg = "No processes match " + fmt.Sprintf("%q", v.filter.Value()) + "."
		}
		return lipgloss.JoinVertical(lipgloss.Left, top, "", pad.Render(styles.MutedText.Render(msg)))
	}

	v.procTable.SetColumns(tableColumns(width-4, []table.Column{
		{Title: "PID", Width: 7},
		{Title: "NAME", Width: 18},
		{Title: "USER", Width: 10},
		{Title: "CPU", Width: 6},
		{Title: "MEM", Width: 6},
		{Title: "STATUS", Width: 9},
		{Title: "COMMAND", Width: 10},
	}, 6))
	v.procTable.SetWidth(width - 4)
	v.procTable.SetHeight(max(height-lipgloss.Height(top)-1, 3))
	return lipgloss.JoinVertical(lipgloss.Left, top, pad.Render(v.procTable.View()))
}

func (v *serverDetailView) renderContainers(width, height int) string {
	pad := lipgloss.NewStyle().Padding(0, 2)
	if p := v.pending(v.containers, "containers"); p != "" {
		return pad.Render(p)
	}

	list, _ := queryData[*domain.ContainerList](v.containers)
	head := []string{components.Updated(v.containers.snap.UpdatedAt, v.env.now())}
	if list != nil && !list.LastUpdated.IsZero() {
		head[0] = styles.MutedText.Render("Reported "+formatTime(list.LastUpdated)+"  ") + head[0]
	}
	if note := staleNote(v.containers); note != "" {
		head = append(head, note)
	}
	top := pad.Render(strings.Join(head, "\n"))

	if len(v.containerTable.Rows()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, "",
			pad.Render(styles.MutedText.Render("No containers running on this server.")))
	}

	v.containerTable.SetColumns(tableColumns(width-4, []table.Column{
		{Title: "NAME", Width: 20},
		{Title: "IMAGE", Width: 10},
		{Title: "STATUS", Width: 10},
		{Title: "UPTIME", Width: 14},
		{Title: "CPU", Width: 6},
		{Title: "MEMORY", Width: 20},
	}, 1))
	v.containerTable.SetWidth(width - 4)
	v.containerTable.SetHeight(max(height-lipgloss.Height(top)-1, 3))
	return lipgloss.JoinVertical(lipgloss.Left, top, pad.Render(v.containerTable.View()))
}
