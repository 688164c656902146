// Package tui implements the tsm dashboard: a bubbletea program with a
// login form, an overview, server and website lists, and detail views.
// Views read through the shared polling cache; only the active view
// observes keys, so leaving a view stops its polling.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/api"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/session"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Page is a top-level dashboard section.
type Page int

const (
	PageOverview Page = iota
	PageServers
	PageWebsites
)

func (p Page) String() string {
	switch p {
	case PageServers:
		return "servers"
	case PageWebsites:
		return "websites"
	default:
		return "overview"
	}
}

// Options wires the dashboard to its services.
type Options struct {
	Session  *session.Service
	Monitor  *monitor.Service
	Cache    *querycache.Cache
	Config   *config.Config
	Logger   *slog.Logger
	Recorder *auditlog.Recorder

	// OnLogout runs after the session is cleared.
	OnLogout func()

	// Start is the first page shown after login.
	Start Page

	// Now defaults to time.Now.
	Now func() time.Time
}

// env is shared by every view of one program.
type env struct {
	opts        Options
	send        func(tea.Msg)
	spinnerView string
}

func (e *env) now() time.Time {
	if e.opts.Now != nil {
		return e.opts.Now()
	}
	return time.Now()
}

func (e *env) listOpts() querycache.Options {
	return querycache.Options{RefreshInterval: e.opts.Config.Refresh(), Enabled: true}
}

func (e *env) liveOpts(enabled bool) querycache.Options {
	return querycache.Options{RefreshInterval: e.opts.Config.LiveRefresh(), Enabled: enabled}
}

func (e *env) observe(key string, fetch querycache.Fetcher, opts querycache.Options) *query {
	return observe(e.opts.Cache, e.send, key, fetch, opts)
}

// record writes an audit entry for a dashboard mutation.
func (e *env) record(command string, meta auditlog.Metadata, start time.Time, err error) {
	if sess, ok := e.opts.Session.Current(); ok && meta.Account == "" {
		meta.Account = sess.User.Email
	}
	e.opts.Recorder.Record(context.Background(), auditlog.Event{
		Command: "tsm dashboard " + command,
		Meta:    meta,
		Start:   start,
		Err:     err,
	})
}

// view is one screen of the dashboard. The app renders the chrome around
// it and forwards messages.
type view interface {
	update(msg tea.Msg) (view, tea.Cmd)
	render(width, height int) string
	bindings() []components.KeyBinding
	breadcrumb() string

	// capturing reports whether a text field or form has focus, in which
	// case global keys are not interpreted.
	capturing() bool

	close()
}

// --- Messages ---

type navigateMsg struct{ page Page }

type openServerMsg struct{ server domain.Server }

type openWebsiteMsg struct{ website domain.Website }

type backMsg struct{}

type loggedInMsg struct{ session *domain.Session }

type loginFailedMsg struct{ err error }

type statusMsg struct {
	text    string
	isError bool
}

func setStatus(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Key map ---

type appKeyMap struct {
	Overview key.Binding
	Servers  key.Binding
	Websites key.Binding
	Logout   key.Binding
	Quit     key.Binding
}

var appKeys = appKeyMap{
	Overview: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overview")),
	Servers:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "servers")),
	Websites: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "websites")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// --- App model ---

type appModel struct {
	env *env

	current view
	page    Page

	// parent is the page a detail view returns to.
	parent Page

	spinner spinner.Model

	status        string
	statusIsError bool

	width  int
	height int
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	r := &relay{}
	m := newAppModel(opts, r.Send)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	r.set(p.Send)

	final, err := p.Run()
	if fm, ok := final.(appModel); ok && fm.current != nil {
		fm.current.close()
	}
	if err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newAppModel(opts Options, send func(tea.Msg)) appModel {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	e := &env{opts: opts, send: send, spinnerView: s.View()}
	m := appModel{env: e, spinner: s, page: opts.Start}

	if _, ok := opts.Session.Current(); ok {
		m.current = m.pageView(opts.Start)
	} else if opts.Session.Restore() != nil {
		m.current = m.pageView(opts.Start)
	} else {
		m.current = newLoginView(e, "", nil)
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if lv, ok := m.current.(*loginView); ok {
		cmds = append(cmds, lv.init())
	}
	return tea.Batch(cmds...)
}

func (m appModel) pageView(p Page) view {
	switch p {
	case PageServers:
		return newServersView(m.env)
	case PageWebsites:
		return newWebsitesView(m.env)
	default:
		return newOverviewView(m.env)
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.env.spinnerView = m.spinner.View()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		if errors.Is(msg.snap.Err, domain.ErrUnauthorized) {
			if _, isLogin := m.current.(*loginView); !isLogin {
				return m.expire()
			}
		}

	case loggedInMsg:
		m.env.record("login", auditlog.Metadata{Account: msg.session.User.Email}, time.Now(), nil)
		return m.open(m.env.opts.Start)

	case navigateMsg:
		return m.open(msg.page)

	case openServerMsg:
		return m.replace(newServerDetailView(m.env, msg.server), m.page)

	case openWebsiteMsg:
		return m.replace(newWebsiteDetailView(m.env, msg.website), m.page)

	case backMsg:
		return m.open(m.parent)

	case statusMsg:
		m.status = msg.text
		m.statusIsError = msg.isError
		return m, nil
	}

	if m.current == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.current, cmd = m.current.update(msg)
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	_, isLogin := m.current.(*loginView)
	if !isLogin && !m.current.capturing() {
		switch {
		case key.Matches(msg, appKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, appKeys.Overview):
			return m.open(PageOverview)
		case key.Matches(msg, appKeys.Servers):
			return m.open(PageServers)
		case key.Matches(msg, appKeys.Websites):
			return m.open(PageWebsites)
		case key.Matches(msg, appKeys.Logout):
			return m.logout("Logged out.", false)
		}
	}

	// Any key clears a stale status message.
	if m.status != "" && !m.current.capturing() {
		m.status = ""
	}

	var cmd tea.Cmd
	m.current, cmd = m.current.update(msg)
	return m, cmd
}

// open shows a top-level page.
func (m appModel) open(p Page) (tea.Model, tea.Cmd) {
	m.page = p
	return m.replace(m.pageView(p), p)
}

// replace closes the current view before mounting next, so polling for
// keys the next view does not observe stops immediately.
func (m appModel) replace(next view, parent Page) (tea.Model, tea.Cmd) {
	if m.current != nil {
		m.current.close()
	}
	m.current = next
	m.parent = parent
	return m, nil
}

func (m appModel) logout(message string, isError bool) (tea.Model, tea.Cmd) {
	if m.current != nil {
		m.current.close()
	}

	var email string
	if sess, ok := m.env.opts.Session.Current(); ok {
		email = sess.User.Email
	}

	start := time.Now()
	err := m.env.opts.Session.Logout()
	m.env.opts.Cache.Clear()
	if m.env.opts.OnLogout != nil {
		m.env.opts.OnLogout()
	}
	m.env.record("logout", auditlog.Metadata{Account: email}, start, err)
	if err != nil {
		m.env.opts.Logger.Warn("logout incomplete", "error", err)
	}

	lv := newLoginView(m.env, email, nil)
	m.current = lv
	m.status = message
	m.statusIsError = isError
	return m, lv.init()
}

// expire returns to the login form after the API rejected the token.
func (m appModel) expire() (tea.Model, tea.Cmd) {
	m.env.opts.Logger.Info("session rejected by the API, logging out")
	return m.logout("Your session has expired. Please log in again.", true)
}

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 || m.current == nil {
		return ""
	}

	account := ""
	if sess, ok := m.env.opts.Session.Current(); ok {
		account = sess.User.DisplayName()
	}
	header := components.Header(m.width, m.current.breadcrumb(), account)

	bindings := m.current.bindings()
	if _, isLogin := m.current.(*loginView); !isLogin && !m.current.capturing() {
		bindings = append(bindings, components.FromKeys(
			appKeys.Overview, appKeys.Servers, appKeys.Websites, appKeys.Logout, appKeys.Quit,
		)...)
	}
	footer := components.Footer(m.width, bindings)
	statusBar := components.StatusBar(m.width, m.status, m.statusIsError)

	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-lipgloss.Height(statusBar), 1)
	content := m.current.render(m.width, contentH)

	sections := []string{header, content}
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)
	return padToHeight(lipgloss.JoinVertical(lipgloss.Left, sections...), m.width, m.height)
}

// padToHeight pads the view to exactly height lines so the alt screen
// renderer repaints the full terminal and leaves no ghost lines behind.
func padToHeight(view string, width, height int) string {
	if height <= 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// describeErr shortens API errors for inline display.
func describeErr(err error) string {
	var fe *domain.FetchError
	switch {
	case errors.As(err, &fe) && fe.Message != "":
		return fe.Message
	case api.IsUnauthorized(err):
		return "not authorized"
	default:
		return err.Error()
	}
}
