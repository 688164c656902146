package components

import (
	"strings"

	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one table column. The first Flex column absorbs any
// width left over after the fixed widths.
type Column struct {
	Title string
	Width int
	Flex  bool
}

// Cell is one table value. A non-empty Color overrides the cell text
// color on unselected rows.
type Cell struct {
	Text  string
	Color lipgloss.Color
}

// Table renders a header, a separator and the rows that fit in height,
// scrolled so the cursor row stays visible.
func Table(width, height int, cols []Column, rows [][]Cell, cursor int) string {
	available := max(width-4, 10)
	cols = fitColumns(cols, available)

	headerCells := make([]string, len(cols))
	for i, col := range cols {
		headerCells[i] = styles.TableHeader.Width(col.Width).Render(col.Title)
	}
	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)
	sep := styles.MutedText.Render(strings.Repeat("─", available))

	visible := max(height-2, 1)
	start, end := Window(len(rows), cursor, visible)

	lines := make([]string, 0, visible+2)
	lines = append(lines, headerRow, sep)
	for i := start; i < end; i++ {
		selected := i == cursor
		cells := make([]string, len(cols))
		for j, col := range cols {
			var c Cell
			if j < len(rows[i]) {
				c = rows[i][j]
			}
			style := styles.TableCell
			if selected {
				style = styles.TableSelectedRow
			} else if c.Color != "" {
				style = style.Foreground(c.Color)
			}
			cells[j] = style.Width(col.Width).Render(Truncate(c.Text, col.Width-2))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

func fitColumns(cols []Column, available int) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)

	total := 0
	for _, c := range out {
		total += c.Width
	}
	if total >= available {
		return out
	}
	for i := range out {
		if out[i].Flex {
			out[i].Width += available - total
			break
		}
	}
	return out
}

// Window returns the half-open range of n rows to show in visible lines
// so that cursor is on screen.
func Window(n, cursor, visible int) (start, end int) {
	if n <= visible {
		return 0, n
	}
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end = min(start+visible, n)
	return end - visible, end
}

// MoveCursor applies a navigation key to cursor over n rows. It reports
// false when key is not a navigation key.
func MoveCursor(cursor, n int, key string) (int, bool) {
	switch key {
	case "up", "k":
		return max(cursor-1, 0), true
	case "down", "j":
		return max(min(cursor+1, n-1), 0), true
	case "g", "home":
		return 0, true
	case "G", "end":
		return max(n-1, 0), true
	}
	return cursor, false
}

// ClampCursor keeps cursor inside n rows after the rows changed.
func ClampCursor(cursor, n int) int {
	return max(min(cursor, n-1), 0)
}
