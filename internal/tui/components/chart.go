package components

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// chartHeight is the fixed height for all history charts.
const chartHeight = 6

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.DodgerBlue,
	asciigraph.LightCoral,
	asciigraph.MediumSeaGreen,
	asciigraph.Gold,
}

// Series is one named line of a chart.
type Series struct {
	Name string
	Data []float64
}

// Chart renders one or more series with a label header and a summary line
// per series. format renders axis-independent values such as "1.5 KB".
func Chart(label string, width int, format func(float64) string, series ...Series) string {
	var nonEmpty []Series
	for _, s := range series {
		if len(s.Data) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}

	// Reserve space for Y-axis labels (number + " ┤").
	plotWidth := max(width-10, 10)

	data := make([][]float64, len(nonEmpty))
	colors := make([]asciigraph.AnsiColor, len(nonEmpty))
	legends := make([]string, len(nonEmpty))
	longest := 0
	for i, s := range nonEmpty {
		longest = max(longest, len(s.Data))
		colors[i] = seriesColors[i%len(seriesColors)]
		legends[i] = s.Name
	}
	for i, s := range nonEmpty {
		data[i] = padLeft(s.Data, longest)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(colors...),
		asciigraph.LabelColor(asciigraph.Default),
	}
	if len(nonEmpty) > 1 {
		opts = append(opts, asciigraph.SeriesLegends(legends...))
	}
	chart := asciigraph.PlotMany(data, opts...)

	summaries := make([]string, len(nonEmpty))
	for i, s := range nonEmpty {
		lo, hi := minMax(s.Data)
		prefix := ""
		if len(nonEmpty) > 1 {
			prefix = s.Name + "  "
		}
		summaries[i] = fmt.Sprintf("  %scur: %s  min: %s  max: %s",
			prefix, format(s.Data[len(s.Data)-1]), format(lo), format(hi))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Label.Render(label),
		chart,
		styles.MutedText.Render(strings.Join(summaries, "\n")),
	)
}

// padLeft aligns shorter series to the right edge so the latest hours line
// up across series.
func padLeft(data []float64, n int) []float64 {
	if len(data) >= n {
		return data
	}
	out := make([]float64, n)
	fill := data[0]
	for i := 0; i < n-len(data); i++ {
		out[i] = fill
	}
	copy(out[n-len(data):], data)
	return out
}

func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
