// Package session owns the authenticated identity of the CLI and the
// dashboard: it logs in through the API, persists the user and token, and
// restores them on the next start.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/util"
)

// Authenticator verifies credentials with the API.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
}

// Service holds the current session in memory and mirrors it to a Store.
// It satisfies the API client's token source.
type Service struct {
	store  Store
	auth   Authenticator
	logger *slog.Logger

	mu      sync.RWMutex
	current *domain.Session
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for restore and logout diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService returns a service with no session loaded. Call Restore to
// pick up a persisted session.
func NewService(store Store, auth Authenticator, opts ...Option) *Service {
	s := &Service{store: store, auth: auth, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login validates creds, verifies them with the API and persists the
// resulting session. Rejected credentials and unreachable servers are both
// reported as *domain.AuthError; malformed input as *domain.ValidationError.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := util.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	if s.auth == nil {
		return nil, &domain.AuthError{Message: "no authenticator configured"}
	}

	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &domain.AuthError{Message: "unable to contact the server", Err: err}
	}
	if !sess.Valid() {
		return nil, &domain.AuthError{Message: "server returned an incomplete session"}
	}

	if err := s.persist(sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.logger.Debug("session established", "user", sess.User.Email)
	return sess, nil
}

func (s *Service) persist(sess *domain.Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("session: failed to encode user: %w", err)
	}
	if err := s.store.Set(KeyToken, sess.Token); err != nil {
		return fmt.Errorf("session: failed to store token: %w", err)
	}
	if err := s.store.Set(KeyUser, string(user)); err != nil {
		_ = s.store.Delete(KeyToken)
		return fmt.Errorf("session: failed to store user: %w", err)
	}
	return nil
}

// Restore loads the persisted session. It returns nil, leaving the
// service logged out, when either half is missing or unreadable.
func (s *Service) Restore() *domain.Session {
	sess := s.load()

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	return sess
}

func (s *Service) load() *domain.Session {
	token, err := s.store.Get(KeyToken)
	if err != nil {
		s.logDebugUnlessNotFound("session token unavailable", err)
		return nil
	}
	raw, err := s.store.Get(KeyUser)
	if err != nil {
		s.logDebugUnlessNotFound("session user unavailable", err)
		return nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Debug("session user corrupt", "error", err)
		return nil
	}

	sess := &domain.Session{User: user, Token: token}
	if !sess.Valid() {
		s.logger.Debug("session incomplete")
		return nil
	}
	return sess
}

func (s *Service) logDebugUnlessNotFound(msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		return
	}
	s.logger.Debug(msg, "error", err)
}

// Logout forgets the session in memory and in the store. It succeeds when
// nothing was stored.
func (s *Service) Logout() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.store.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("session: failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Current returns the session held in memory.
func (s *Service) Current() (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Token returns the bearer token of the current session.
func (s *Service) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}
