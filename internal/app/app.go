// Package app assembles the services a tsm command needs from the user's
// configuration: the session store, API clients and response cache.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nathanbeddoewebdev/tsm/internal/api"
	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/retry"
	"nathanbeddoewebdev/tsm/internal/services/monitor"
	"nathanbeddoewebdev/tsm/internal/session"
	"nathanbeddoewebdev/tsm/internal/swrcache"
)

// waitTimeout bounds how long Close waits for background revalidation.
const waitTimeout = 5 * time.Second

// App holds the services shared by CLI commands.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Sessions *session.Service
	Cache    *swrcache.Cache
}

// Load reads the configuration and opens the configured session store.
func Load(logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := session.DefaultStore(cfg.SessionBackend())
	if err != nil {
		return nil, err
	}

	login := api.NewLoginClient(api.WithBaseURL(cfg.BaseURL()), api.WithLogger(logger))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Sessions: session.NewService(store, login, session.WithLogger(logger)),
		Cache:    swrcache.NewDefault().WithLogger(logger),
	}, nil
}

// RequireSession returns the persisted session, or domain.ErrNoSession.
func (a *App) RequireSession() (*domain.Session, error) {
	if sess, ok := a.Sessions.Current(); ok {
		return sess, nil
	}
	if sess := a.Sessions.Restore(); sess != nil {
		return sess, nil
	}
	return nil, fmt.Errorf("%w: run `tsm auth login` first", domain.ErrNoSession)
}

// Client returns an API client authenticated by the session. Reads are
// retried on transient failures.
func (a *App) Client() *api.Client {
	return api.NewClient(a.Sessions,
		api.WithBaseURL(a.Config.BaseURL()),
		api.WithLogger(a.Logger),
		api.WithRetry(retry.DefaultConfig()),
	)
}

// Monitor returns a service for the logged-in account whose reads go
// through the response cache scoped to that account.
func (a *App) Monitor() (*monitor.Service, *domain.Session, error) {
	sess, err := a.RequireSession()
	if err != nil {
		return nil, nil, err
	}
	svc := monitor.New(a.Client(), monitor.WithCache(a.Cache.Scoped(sess.User.Email)))
	return svc, sess, nil
}

// Close waits briefly for stale cache entries being refreshed in the
// background, so their results are written before the process exits.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	a.Cache.Wait(ctx)
}
