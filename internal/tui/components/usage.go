package components

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// UsageBar renders a fixed-width bar and percentage colored by the usage
// thresholds, e.g. "███████░░░ 72.0%".
func UsageBar(percent float64, width int) string {
	width = max(width, 4)
	p := min(max(percent, 0), 100)
	filled := int(p / 100 * float64(width))

	color := styles.LevelColor(metrics.ClassifyUsage(percent))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		styles.KeySepStyle.Render(strings.Repeat("░", width-filled))
	return bar + " " + lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%5.1f%%", percent))
}

// Tabs renders a tab strip with the active tab highlighted.
func Tabs(labels []string, active int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		label := fmt.Sprintf("%d %s", i+1, l)
		if i == active {
			parts[i] = styles.ActiveTab.Render(label)
		} else {
			parts[i] = styles.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
