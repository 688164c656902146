// Package monitor is the service layer between the API client and its
// consumers. CLI commands and dashboard views call Service methods rather
// than the client directly; the service adds validation, response caching
// for reads, and invalidation after writes.
package monitor

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/api"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/swrcache"
)

// Invalidator is notified of the key prefixes a write made stale.
type Invalidator interface {
	InvalidatePrefix(prefix string)
}

// Service wraps an api.Client.
type Service struct {
	client      *api.Client
	cache       *swrcache.Cache
	invalidator Invalidator
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables stale-while-revalidate caching for read operations.
func WithCache(cache *swrcache.Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithInvalidator forwards write invalidations, e.g. to the dashboard's
// polling cache.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// New returns a Service backed by client.
func New(client *api.Client, opts ...Option) *Service {
	svc := &Service{client: client}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func cached[T any](s *Service, ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return fetch(ctx)
	}
	return swrcache.GetOrFetch(s.cache, ctx, key, fetch)
}

func (s *Service) invalidate(prefixes ...string) {
	for _, p := range prefixes {
		if s.cache != nil {
			_ = s.cache.InvalidatePrefix(p)
		}
		if s.invalidator != nil {
			s.invalidator.InvalidatePrefix(p)
		}
	}
}

func normalizeID(id domain.ID) (domain.ID, error) {
	trimmed := domain.ID(strings.TrimSpace(id.String()))
	if trimmed == "" {
		return "", &domain.ValidationError{Field: "id", Message: "is required"}
	}
	return trimmed, nil
}

// --- Servers ---

// ListServers returns every server on the account.
func (s *Service) ListServers(ctx context.Context) ([]domain.Server, error) {
	return cached(s, ctx, KeyServers, s.client.ListServers)
}

// GetServer returns a server's info and 24h history.
func (s *Service) GetServer(ctx context.Context, id domain.ID) (*domain.ServerDetail, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return cached(s, ctx, ServerKey(id), func(ctx context.Context) (*domain.ServerDetail, error) {
		return s.client.GetServer(ctx, id)
	})
}

// FindServer resolves a server by ID or by name.
func (s *Service) FindServer(ctx context.Context, idOrName string) (*domain.Server, error) {
	needle := strings.TrimSpace(idOrName)
	if needle == "" {
		return nil, &domain.ValidationError{Field: "server", Message: "is required"}
	}
	servers, err := s.ListServers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range servers {
		if servers[i].ID.String() == needle {
			return &servers[i], nil
		}
	}
	for i := range servers {
		if strings.EqualFold(servers[i].Name, needle) {
			return &servers[i], nil
		}
	}
	return nil, fmt.Errorf("server %q: %w", needle, domain.ErrNotFound)
}

// CreateServer registers a server and invalidates the server list.
func (s *Service) CreateServer(ctx context.Context, opts domain.CreateServerOpts) (*domain.Server, error) {
	server, err := s.client.CreateServer(ctx, opts)
	if err == nil {
		s.invalidate(KeyServers, KeyStatus)
	}
	return server, err
}

// DeleteServer removes a server and invalidates everything cached for it.
func (s *Service) DeleteServer(ctx context.Context, id domain.ID) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	err = s.client.DeleteServer(ctx, id)
	if err == nil {
		s.invalidate(prefixServer, KeyStatus)
	}
	return err
}

// GetLiveStats is never cached.
func (s *Service) GetLiveStats(ctx context.Context, id domain.ID) (*domain.LiveStats, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return s.client.GetLiveStats(ctx, id)
}

// GetProcesses is never cached.
func (s *Service) GetProcesses(ctx context.Context, id domain.ID) (*domain.ProcessList, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return s.client.GetProcesses(ctx, id)
}

// GetContainers is never cached.
func (s *Service) GetContainers(ctx context.Context, id domain.ID) (*domain.ContainerList, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return s.client.GetContainers(ctx, id)
}

// GetStatus returns the online summary.
func (s *Service) GetStatus(ctx context.Context) (*domain.StatusSummary, error) {
	return cached(s, ctx, KeyStatus, s.client.GetStatus)
}

// --- Websites ---

// ListWebsites returns every monitored website.
func (s *Service) ListWebsites(ctx context.Context) ([]domain.Website, error) {
	return cached(s, ctx, KeyWebsites, s.client.ListWebsites)
}

// GetWebsite returns a website's uptime and certificate detail.
func (s *Service) GetWebsite(ctx context.Context, id domain.ID) (*domain.WebsiteDetail, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return cached(s, ctx, WebsiteKey(id), func(ctx context.Context) (*domain.WebsiteDetail, error) {
		return s.client.GetWebsite(ctx, id)
	})
}

// ListWebsiteDetails returns the detail of every website that could be
// fetched.
func (s *Service) ListWebsiteDetails(ctx context.Context) ([]domain.WebsiteDetail, error) {
	return cached(s, ctx, KeyWebsiteDetails, s.client.ListWebsiteDetails)
}

// FindWebsite resolves a website by ID or by URL. URLs match ignoring
// case, a trailing slash and, when no scheme is given, the scheme.
func (s *Service) FindWebsite(ctx context.Context, idOrURL string) (*domain.Website, error) {
	needle := strings.TrimSpace(idOrURL)
	if needle == "" {
		return nil, &domain.ValidationError{Field: "website", Message: "is required"}
	}
	sites, err := s.ListWebsites(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sites {
		if sites[i].ID.String() == needle {
			return &sites[i], nil
		}
	}
	want := comparableURL(needle)
	for i := range sites {
		if comparableURL(sites[i].URL) == want {
			return &sites[i], nil
		}
	}
	return nil, fmt.Errorf("website %q: %w", needle, domain.ErrNotFound)
}

func comparableURL(raw string) string {
	u := strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if _, rest, ok := strings.Cut(u, "://"); ok {
		return rest
	}
	return u
}

// AddWebsites starts monitoring urls.
func (s *Service) AddWebsites(ctx context.Context, urls []string) error {
	err := s.client.AddWebsites(ctx, domain.AddWebsitesOpts{URLs: urls})
	if err == nil {
		s.invalidate(prefixWebsite)
	}
	return err
}

// DeleteWebsite stops monitoring a website.
func (s *Service) DeleteWebsite(ctx context.Context, id domain.ID) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	err = s.client.DeleteWebsite(ctx, id)
	if err == nil {
		s.invalidate(prefixWebsite)
	}
	return err
}
