package tui

import (
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type configSavedMsg struct {
	key   string
	value string
}

type configSaveErrorMsg struct {
	err error
}

var configKeys = struct {
	Up, Down, Edit, Reset, Quit key.Binding
	Save, Cancel                key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("j/k", "navigate")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Edit:   key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("e", "edit")),
	Reset:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Save:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// configEditor lists every configuration key with its effective value and
// edits one key at a time. Each accepted change is written to disk
// immediately; a rejected value keeps the editor open with the error.
type configEditor struct {
	cfg  *config.Config
	keys []config.KeySpec
	save func(*config.Config) error

	cursor  int
	editing bool
	input   textinput.Model

	width, height int

	status  string
	isError bool
}

// RunConfigView opens the interactive configuration editor.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	_, err = tea.NewProgram(newConfigEditor(cfg), tea.WithAltScreen()).Run()
	return err
}

func newConfigEditor(cfg *config.Config) configEditor {
	return configEditor{
		cfg:  cfg,
		keys: config.Keys,
		save: (*config.Config).Save,
	}
}

func (m configEditor) Init() tea.Cmd { return nil }

func (m configEditor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)

	case configSavedMsg:
		m.editing = false
		m.isError = false
		if msg.value == "" {
			m.status = fmt.Sprintf("%s reset to default", msg.key)
		} else {
			m.status = fmt.Sprintf("%s set to %s", msg.key, msg.value)
		}
		return m, nil

	case configSaveErrorMsg:
		m.setError(msg.err)
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m configEditor) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, configKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, configKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, configKeys.Down):
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case key.Matches(msg, configKeys.Reset):
		spec := m.keys[m.cursor]
		if spec.Get(m.cfg) == "" {
			m.status = spec.Name + " already uses the default"
			m.isError = false
			return m, nil
		}
		return m.apply(spec, "")
	case key.Matches(msg, configKeys.Edit):
		spec := m.keys[m.cursor]
		m.input = textinput.New()
		m.input.Placeholder = spec.Default
		m.input.SetValue(spec.Get(m.cfg))
		m.input.Width = 40
		m.input.Focus()
		m.editing = true
		m.status = ""
		return m, textinput.Blink
	}
	return m, nil
}

func (m configEditor) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, configKeys.Cancel):
		m.editing = false
		m.status = ""
		return m, nil
	case key.Matches(msg, configKeys.Save):
		return m.apply(m.keys[m.cursor], strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply validates value against spec and, when it is accepted, returns a
// command that persists the whole config.
func (m configEditor) apply(spec config.KeySpec, value string) (tea.Model, tea.Cmd) {
	if err := spec.Set(m.cfg, value); err != nil {
		m.setError(err)
		return m, nil
	}

	cfg, save := m.cfg, m.save
	name, stored := spec.Name, spec.Get(m.cfg)
	return m, func() tea.Msg {
		if err := save(cfg); err != nil {
			return configSaveErrorMsg{err: err}
		}
		return configSavedMsg{key: name, value: stored}
	}
}

func (m *configEditor) setError(err error) {
	m.status = "Error: " + err.Error()
	m.isError = true
}

func (m configEditor) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "config", "")

	bindings := []key.Binding{configKeys.Up, configKeys.Edit, configKeys.Reset, configKeys.Quit}
	if m.editing {
		bindings = []key.Binding{configKeys.Save, configKeys.Cancel}
	}
	footerKeys := make([]components.KeyBinding, len(bindings))
	for i, b := range bindings {
		footerKeys[i] = components.KeyBinding{Key: b.Help().Key, Desc: b.Help().Desc}
	}
	footer := components.Footer(m.width, footerKeys)
	status := components.StatusBar(m.width, m.status, m.isError)

	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if status != "" {
		contentH -= lipgloss.Height(status)
	}
	contentH = max(contentH, 1)

	sections := []string{header, m.renderKeys(contentH)}
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

const configLabelWidth = 24

func (m configEditor) renderKeys(height int) string {
	title := styles.Title.Render("Configuration")

	rows := make([]string, 0, len(m.keys)+2)
	for i, spec := range m.keys {
		selected := i == m.cursor

		value := spec.Get(m.cfg)
		if value == "" {
			value = "(default " + spec.Default + ")"
		}

		switch {
		case selected && m.editing:
			rows = append(rows, styles.AccentText.Render("> ")+
				styles.Label.Width(configLabelWidth).Render(spec.Name)+m.input.View())
		case selected:
			rows = append(rows, styles.AccentText.Render("> ")+
				styles.Label.Width(configLabelWidth).Render(spec.Name)+
				styles.Value.Bold(true).Render(value))
			rows = append(rows, "    "+styles.MutedText.Italic(true).Render(spec.Description))
			if note := m.overrideNote(spec); note != "" {
				rows = append(rows, "    "+styles.WarningText.Render(note))
			}
		default:
			rows = append(rows, "  "+
				styles.MutedText.Width(configLabelWidth).Render(spec.Name)+
				styles.MutedText.Render(value))
		}
	}

	card := styles.Card.Width(72).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, title, "", card))
}

// overrideNote explains when the environment shadows a stored value.
func (m configEditor) overrideNote(spec config.KeySpec) string {
	if spec.Name != "api-url" {
		return ""
	}
	if env := strings.TrimSpace(os.Getenv(config.EnvAPIURL)); env != "" {
		return config.EnvAPIURL + " is set; requests go to " + env
	}
	return ""
}
