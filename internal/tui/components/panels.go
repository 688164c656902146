package components

import (
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Loading renders a centered spinner line.
func Loading(width, height int, spinnerView, label string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		styles.MutedText.Render(spinnerView+"  "+label))
}

// ErrorPanel renders a centered error with a retry hint.
func ErrorPanel(width, height int, err error) string {
	text := styles.ErrorText.Render("Error: "+err.Error()) + "\n\n" +
		styles.MutedText.Render("Press r to retry.")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().MaxWidth(max(width-4, 10)).Render(text))
}

// Empty renders a centered placeholder for a successful but empty result.
func Empty(width, height int, message, hint string) string {
	text := styles.MutedText.Render(message)
	if hint != "" {
		text += "\n\n" + styles.MutedText.Render(hint)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}

// Field renders a label/value pair for detail cards.
func Field(label, value string, labelWidth int) string {
	return styles.Label.Width(labelWidth).Render(label) + styles.Value.Render(value)
}
