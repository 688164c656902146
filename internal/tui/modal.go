package tui

import (
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// modal is a huh form shown in place of a list while the user creates or
// confirms something. esc dismisses it.
type modal struct {
	title  string
	form   *huh.Form
	submit func() tea.Cmd
}

func newModal(title string, form *huh.Form, submit func() tea.Cmd) *modal {
	return &modal{
		title:  title,
		form:   form.WithShowHelp(false).WithWidth(56),
		submit: submit,
	}
}

func (m *modal) init() tea.Cmd {
	return m.form.Init()
}

// update forwards msg to the form and reports whether the modal is done.
func (m *modal) update(msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return true, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return true, tea.Batch(cmd, m.submit())
	case huh.StateAborted:
		return true, cmd
	}
	return false, cmd
}

func (m *modal) render(width, height int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render(m.title),
		"",
		m.form.View(),
		"",
		styles.FormatKeyBinding("enter", "submit")+"  "+styles.FormatKeyBinding("esc", "cancel"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		styles.CardActive.Render(body))
}

// formatTime renders an API timestamp in local time, or "-" when unset.
func formatTime(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
