// Package components provides reusable render helpers for the tsm
// dashboard. They are not tea.Model values; views compose them.
package components

import (
	"strings"

	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Header renders the application header bar.
//
//	┌──────────────────────────────────────────┐
//	│  tsm > servers > web-1      Jane Doe     │
//	└──────────────────────────────────────────┘
func Header(width int, breadcrumb string, account string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("tsm")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	right := ""
	if account != "" {
		right = styles.Subtitle.Render(account)
	}

	innerWidth := width - 4 // padding
	gap := max(innerWidth-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}
