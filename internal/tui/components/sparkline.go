package components

import (
	"nathanbeddoewebdev/tsm/internal/metrics"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders the most recent width values of a percentage series as
// a one-row braille sparkline colored by the latest value's usage level.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	level := metrics.ClassifyUsage(data[len(data)-1])
	sl := sparkline.New(width, 1,
		sparkline.WithMaxValue(100),
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(styles.LevelColor(level))),
	)
	sl.PushAll(data)
	sl.DrawBraille()
	return sl.View()
}
