package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/querycache"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/tui/components"
	"nathanbeddoewebdev/tsm/internal/tui/styles"
	"nathanbeddoewebdev/tsm/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type serverCreatedMsg struct {
	name   string
	server *domain.Server
	err    error
}

type serverDeletedMsg struct {
	server domain.Server
	err    error
}

type serversView struct {
	env *env

	servers *query
	cursor  int

	modal   *modal
	create  domain.CreateServerOpts
	confirm bool
}

func newServersView(e *env) *serversView {
	return &serversView{
		env:     e,
		servers: e.observe(monitor.KeyServers, querycache.Fetch(e.opts.Monitor.ListServers), e.listOpts()),
	}
}

func (v *serversView) list() []domain.Server {
	servers, _ := queryData[[]domain.Server](v.servers)
	return servers
}

func (v *serversView) update(msg tea.Msg) (view, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if v.servers.apply(msg) {
			v.cursor = components.ClampCursor(v.cursor, len(v.list()))
		}
		return v, nil

	case serverCreatedMsg:
		if msg.err != nil {
			return v, setStatus(fmt.Sprintf("Failed to add server %q: %s", msg.name, describeErr(msg.err)), true)
		}
		return v, setStatus(fmt.Sprintf("Server %q added. Install the agent with its identifier %s.",
			msg.server.Name, msg.server.UniqueIdentifier), false)

	case serverDeletedMsg:
		if msg.err != nil {
			return v, setStatus(fmt.Sprintf("Failed to delete server %q: %s", msg.server.Name, describeErr(msg.err)), true)
		}
		return v, setStatus(fmt.Sprintf("Server %q deleted.", msg.server.Name), false)
	}

	if v.modal != nil {
		done, cmd := v.modal.update(msg)
		if done {
			v.modal = nil
		}
		return v, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		return v.handleKey(k)
	}
	return v, nil
}

func (v *serversView) handleKey(msg tea.KeyMsg) (view, tea.Cmd) {
	servers := v.list()
	if c, ok := components.MoveCursor(v.cursor, len(servers), msg.String()); ok {
		v.cursor = c
		return v, nil
	}

	switch msg.String() {
	case "r":
		v.servers.refetch()
	case "enter":
		if len(servers) > 0 {
			server := servers[v.cursor]
			return v, func() tea.Msg { return openServerMsg{server: server} }
		}
	case "n":
		return v, v.openCreate()
	case "d":
		if len(servers) > 0 {
			return v, v.openDelete(servers[v.cursor])
		}
	}
	return v, nil
}

func (v *serversView) openCreate() tea.Cmd {
	v.create = domain.CreateServerOpts{}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("How the server appears in lists.").
				Placeholder("web-1").
				Value(&v.create.Name).
				Validate(util.ValidateServerName),
			huh.NewInput().
				Title("Description").
				Placeholder("optional").
				CharLimit(255).
				Value(&v.create.Description),
		),
	)
	v.modal = newModal("Add server", form, func() tea.Cmd {
		opts := v.create
		opts.Name = strings.TrimSpace(opts.Name)
		opts.Description = strings.TrimSpace(opts.Description)
		return tea.Batch(
			setStatus(fmt.Sprintf("Adding server %q...", opts.Name), false),
			createServerCmd(v.env, opts),
		)
	})
	return v.modal.init()
}

func createServerCmd(e *env, opts domain.CreateServerOpts) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		server, err := e.opts.Monitor.CreateServer(context.Background(), opts)
		meta := auditlog.Metadata{ResourceType: "server", ResourceName: opts.Name}
		if err == nil && server == nil {
			err = errors.New("empty response")
		}
		if server != nil {
			meta.ResourceID = server.ID.String()
		}
		e.record("server create", meta, start, err)
		return serverCreatedMsg{name: opts.Name, server: server, err: err}
	}
}

func (v *serversView) openDelete(server domain.Server) tea.Cmd {
	v.confirm = false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", server.Name)).
				Description("Its history is removed and the agent stops reporting.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&v.confirm),
		),
	)
	v.modal = newModal("Delete server", form, func() tea.Cmd {
		if !v.confirm {
			return nil
		}
		return tea.Batch(
			setStatus(fmt.Sprintf("Deleting server %q...", server.Name), false),
			deleteServerCmd(v.env, server),
		)
	})
	return v.modal.init()
}

func deleteServerCmd(e *env, server domain.Server) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := e.opts.Monitor.DeleteServer(context.Background(), server.ID)
		e.record("server delete", auditlog.Metadata{
			ResourceType: "server",
			ResourceID:   server.ID.String(),
			ResourceName: server.Name,
		}, start, err)
		return serverDeletedMsg{server: server, err: err}
	}
}

func (v *serversView) render(width, height int) string {
	if v.modal != nil {
		return v.modal.render(width, height)
	}
	if v.servers.loading() {
		return components.Loading(width, height, v.env.spinnerView, "Loading servers...")
	}
	if err := v.servers.failed(); err != nil {
		return components.ErrorPanel(width, height, errors.New(describeErr(err)))
	}

	servers := v.list()
	if len(servers) == 0 {
		return components.Empty(width, height, "No servers are being monitored.", "Press n to add one.")
	}

	cols := []components.Column{
		{Title: "NAME", Width: 20, Flex: true},
		{Title: "ID", Width: 10},
		{Title: "IDENTIFIER", Width: 38},
		{Title: "CREATED", Width: 18},
	}
	rows := make([][]components.Cell, len(servers))
	for i, s := range servers {
		rows[i] = []components.Cell{
			{Text: s.Name},
			{Text: s.ID.String()},
			{Text: s.UniqueIdentifier},
			{Text: formatTime(s.CreatedAt)},
		}
	}

	footer := v.footer()
	table := components.Table(width, height-lipgloss.Height(footer)-1, cols, rows, v.cursor)
	return lipgloss.JoinVertical(lipgloss.Left, table, "", footer)
}

func (v *serversView) footer() string {
	line := components.Count(len(v.list())) + " servers  " + components.Updated(v.servers.snap.UpdatedAt, v.env.now())
	if v.servers.snap.IsLoading() {
		line += "  " + v.env.spinnerView
	}
	if err := v.servers.snap.Err; err != nil {
		line += "  " + styles.WarningText.Render("refresh failed: "+describeErr(err))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(line)
}

func (v *serversView) bindings() []components.KeyBinding {
	if v.modal != nil {
		return nil
	}
	return []components.KeyBinding{
		{Key: "j/k", Desc: "navigate"},
		{Key: "enter", Desc: "details"},
		{Key: "n", Desc: "add"},
		{Key: "d", Desc: "delete"},
		{Key: "r", Desc: "refresh"},
	}
}

func (v *serversView) breadcrumb() string { return "servers" }
func (v *serversView) capturing() bool    { return v.modal != nil }
func (v *serversView) close()             { v.servers.close() }
