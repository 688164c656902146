package tui

import (
	"context"
	"errors"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/session"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// loginView replaces every page while there is no session.
type loginView struct {
	env *env

	creds domain.Credentials
	form  *huh.Form

	submitting bool
	err        error
}

func newLoginView(e *env, email string, notice error) *loginView {
	v := &loginView{env: e, err: notice}
	v.creds.Email = email
	v.form = v.buildForm()
	return v
}

func (v *loginView) buildForm() *huh.Form {
	v.creds.Password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&v.creds.Email).
				Validate(requiredField("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.creds.Password).
				Validate(requiredField("password")),
		),
	).WithShowHelp(false).WithWidth(48)
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func (v *loginView) init() tea.Cmd {
	return v.form.Init()
}

// loginCmd authenticates and persists the session.
func loginCmd(svc *session.Service, creds domain.Credentials) tea.Cmd {
	return func() tea.Msg {
		sess, err := svc.Login(context.Background(), creds)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{session: sess}
	}
}

func (v *loginView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case loginFailedMsg:
		v.submitting = false
		v.err = msg.err
		v.form = v.buildForm()
		return v, v.form.Init()

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	switch v.form.State {
	case huh.StateCompleted:
		v.submitting = true
		v.err = nil
		return v, tea.Batch(cmd, loginCmd(v.env.opts.Session, v.creds))
	case huh.StateAborted:
		return v, tea.Quit
	}
	return v, cmd
}

func (v *loginView) render(width, height int) string {
	title := styles.Title.Render("Log in to The Server Monitor")
	hint := styles.MutedText.Render("Use the email and password of your dashboard account.")

	body := v.form.View()
	if v.submitting {
		body = styles.MutedText.Render(v.env.spinnerView + "  Logging in...")
	}

	var errLine string
	if v.err != nil {
		errLine = styles.ErrorText.Render(loginMessage(v.err))
	}

	card := lipgloss.JoinVertical(lipgloss.Left, title, hint, "", body, errLine)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		styles.Card.Render(card))
}

// loginMessage renders an error the way it is shown under the form.
func loginMessage(err error) string {
	var ae *domain.AuthError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.As(err, &ve):
		return ve.Error()
	default:
		return err.Error()
	}
}

func (v *loginView) bindings() []components.KeyBinding {
	return []components.KeyBinding{
		{Key: "tab", Desc: "next field"},
		{Key: "enter", Desc: "log in"},
		{Key: "ctrl+c", Desc: "quit"},
	}
}

func (v *loginView) breadcrumb() string { return "login" }
func (v *loginView) capturing() bool    { return true }
func (v *loginView) close()             {}
