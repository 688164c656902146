package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/util"
)

// Client calls the authenticated endpoints. The token is read from the
// TokenSource on every request, so a login or logout takes effect without
// rebuilding the client.
type Client struct {
	t      *transport
	tokens TokenSource
}

// NewClient returns a client that authenticates with tokens.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	return &Client{t: newTransport(opts), tokens: tokens}
}

// authed runs c with the current bearer token. Without a token the call
// fails before touching the network.
func (c *Client) authed(ctx context.Context, req call, out any) (*envelope, error) {
	var token string
	var ok bool
	if c.tokens != nil {
		token, ok = c.tokens.Token()
	}
	if !ok || strings.TrimSpace(token) == "" {
		return nil, &domain.FetchError{Op: req.op, Message: domain.ErrNoSession.Error(), Err: domain.ErrUnauthorized}
	}
	req.token = token
	return c.t.do(ctx, req, out)
}

func serverPath(id domain.ID, suffix string) string {
	return "/server/" + url.PathEscape(id.String()) + "/" + suffix
}

func idQuery(id domain.ID) url.Values {
	return url.Values{"id": []string{id.String()}}
}

// ListServers returns every server on the account.
func (c *Client) ListServers(ctx context.Context) ([]domain.Server, error) {
	var servers []domain.Server
	if _, err := c.authed(ctx, call{op: "list servers", method: http.MethodGet, path: "/server"}, &servers); err != nil {
		return nil, err
	}
	if servers == nil {
		servers = []domain.Server{}
	}
	return servers, nil
}

// GetServer returns a server's info and its last 24 hours of history.
func (c *Client) GetServer(ctx context.Context, id domain.ID) (*domain.ServerDetail, error) {
	var detail domain.ServerDetail
	req := call{op: "get server " + id.String(), method: http.MethodGet, path: "/server", query: idQuery(id)}
	if _, err := c.authed(ctx, req, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateServer registers a new server. opts is validated before any
// request is made.
func (c *Client) CreateServer(ctx context.Context, opts domain.CreateServerOpts) (*domain.Server, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	opts.Description = strings.TrimSpace(opts.Description)
	if err := util.ValidateCreateServer(opts); err != nil {
		return nil, err
	}

	var created domain.Server
	req := call{op: "create server", method: http.MethodPost, path: "/server", body: opts}
	if _, err := c.authed(ctx, req, &created); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created.Name = opts.Name
		created.Description = opts.Description
	}
	return &created, nil
}

// DeleteServer removes a server and its history.
func (c *Client) DeleteServer(ctx context.Context, id domain.ID) error {
	req := call{
		op:     "delete server " + id.String(),
		method: http.MethodDelete,
		path:   "/server",
		body:   map[string]domain.ID{"id": id},
	}
	_, err := c.authed(ctx, req, nil)
	return err
}

// GetLiveStats returns the most recent agent report for a server.
func (c *Client) GetLiveStats(ctx context.Context, id domain.ID) (*domain.LiveStats, error) {
	var stats domain.LiveStats
	req := call{op: "get live stats for server " + id.String(), method: http.MethodGet, path: serverPath(id, "live-stats")}
	if _, err := c.authed(ctx, req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetProcesses returns the process table reported by a server.
func (c *Client) GetProcesses(ctx context.Context, id domain.ID) (*domain.ProcessList, error) {
	var list domain.ProcessList
	req := call{op: "get processes for server " + id.String(), method: http.MethodGet, path: serverPath(id, "processes")}
	if _, err := c.authed(ctx, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetContainers returns the containers reported by a server.
func (c *Client) GetContainers(ctx context.Context, id domain.ID) (*domain.ContainerList, error) {
	var list domain.ContainerList
	req := call{op: "get containers for server " + id.String(), method: http.MethodGet, path: serverPath(id, "containers")}
	if _, err := c.authed(ctx, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetStatus returns the account-wide online summary.
func (c *Client) GetStatus(ctx context.Context) (*domain.StatusSummary, error) {
	var summary domain.StatusSummary
	if _, err := c.authed(ctx, call{op: "get status", method: http.MethodGet, path: "/status"}, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
