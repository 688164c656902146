package components

import (
	"time"

	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// Truncate shortens s to width cells, keeping ANSI styling intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// Updated renders "updated 3 minutes ago" for the last successful fetch.
func Updated(at, now time.Time) string {
	if at.IsZero() {
		return styles.MutedText.Render("never updated")
	}
	if now.Sub(at) < time.Second {
		return styles.MutedText.Render("updated just now")
	}
	return styles.MutedText.Render("updated " + humanize.RelTime(at, now, "ago", "from now"))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}
