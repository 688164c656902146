package api

import (
	"context"
	"net/http"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/util"

	"golang.org/x/sync/errgroup"
)

// detailConcurrency bounds the fan-out in ListWebsiteDetails.
const detailConcurrency = 4

// ListWebsites returns every monitored website.
func (c *Client) ListWebsites(ctx context.Context) ([]domain.Website, error) {
	var sites []domain.Website
	if _, err := c.authed(ctx, call{op: "list websites", method: http.MethodGet, path: "/website"}, &sites); err != nil {
		return nil, err
	}
	if sites == nil {
		sites = []domain.Website{}
	}
	return sites, nil
}

// GetWebsite returns uptime, certificate and response-time data for a
// website.
func (c *Client) GetWebsite(ctx context.Context, id domain.ID) (*domain.WebsiteDetail, error) {
	var detail domain.WebsiteDetail
	req := call{op: "get website " + id.String(), method: http.MethodGet, path: "/website", query: idQuery(id)}
	if _, err := c.authed(ctx, req, &detail); err != nil {
		return nil, err
	}
	if detail.Info.ID == "" {
		detail.Info.ID = id
	}
	return &detail, nil
}

// AddWebsites starts monitoring the given URLs.
func (c *Client) AddWebsites(ctx context.Context, opts domain.AddWebsitesOpts) error {
	urls := make([]string, 0, len(opts.URLs))
	for _, u := range opts.URLs {
		urls = append(urls, strings.TrimSpace(u))
	}
	opts.URLs = urls
	if err := util.ValidateWebsites(opts); err != nil {
		return err
	}

	_, err := c.authed(ctx, call{op: "add websites", method: http.MethodPost, path: "/website", body: opts}, nil)
	return err
}

// DeleteWebsite stops monitoring a website.
func (c *Client) DeleteWebsite(ctx context.Context, id domain.ID) error {
	req := call{
		op:     "delete website " + id.String(),
		method: http.MethodDelete,
		path:   "/website",
		body:   map[string]domain.ID{"id": id},
	}
	_, err := c.authed(ctx, req, nil)
	return err
}

// ListWebsiteDetails fetches the detail of every website, a few at a time.
// A website whose detail cannot be fetched is skipped; the result keeps
// the order of ListWebsites. Only a failure to list the websites, or ctx
// ending, is returned as an error.
func (c *Client) ListWebsiteDetails(ctx context.Context) ([]domain.WebsiteDetail, error) {
	sites, err := c.ListWebsites(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.WebsiteDetail, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i, site := range sites {
		g.Go(func() error {
			detail, err := c.GetWebsite(gctx, site.ID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.t.logger.Warn("skipping website detail", "website", site.URL, "id", site.ID, "error", err)
				return nil
			}
			if detail.Info.URL == "" {
				detail.Info = site
			}
			results[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details := make([]domain.WebsiteDetail, 0, len(results))
	for _, d := range results {
		if d != nil {
			details = append(details, *d)
		}
	}
	return details, nil
}
