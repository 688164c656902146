// Package api is the HTTP client for The Server Monitor API.
//
// Every response arrives in the envelope
//
//	{"success": true, "data": ..., "count": 3, "message": "...", "error": "..."}
//
// and every failure is returned as a *domain.FetchError that wraps one of
// the domain sentinels when the cause is recognisable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/retry"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the production API.
	DefaultBaseURL = "https://api.theservermonitor.com"

	// DefaultUserAgent is sent when no WithUserAgent option is given.
	DefaultUserAgent = "tsm/dev"

	maxBodyBytes = 16 << 20
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() (string, bool)
}

// transport is shared by Client and LoginClient. It performs no retries
// and imposes no deadline of its own; callers control both through ctx.
type transport struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    *slog.Logger
	retry     *retry.Config
}

// Option configures a Client or LoginClient.
type Option func(*transport)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(t *transport) {
		if baseURL != "" {
			t.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *transport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithRetry retries idempotent reads that fail transiently. The dashboard
// leaves this off because it refreshes on its own schedule.
func WithRetry(cfg retry.Config) Option {
	return func(t *transport) { t.retry = &cfg }
}

func newTransport(opts []Option) *transport {
	t := &transport{
		baseURL:   DefaultBaseURL,
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Token   string          `json:"token"`
}

// message returns the most specific human-readable text in the envelope.
func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return rawText(e.Error)
}

// rawText renders an "error" field that may be a string, an object with
// a message, or anything else.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return string(raw)
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	token  string
	header http.Header
}

// send performs one HTTP exchange and returns the status and raw body.
// Only transport failures are reported as errors.
func (t *transport) send(ctx context.Context, c call) (int, []byte, error) {
	target := t.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	var body io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return 0, nil, &domain.FetchError{Op: c.op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, target, body)
	if err != nil {
		return 0, nil, &domain.FetchError{Op: c.op, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("api request failed", "op", c.op, "method", c.method, "path", c.path, "request_id", requestID, "error", err)
		return 0, nil, &domain.FetchError{Op: c.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &domain.FetchError{Op: c.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	t.logger.Debug("api request",
		"op", c.op,
		"method", c.method,
		"path", c.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return resp.StatusCode, data, nil
}

// do sends c, checks the status and envelope, and decodes data into out.
func (t *transport) do(ctx context.Context, c call, out any) (*envelope, error) {
	if c.method == http.MethodGet && t.retry != nil {
		var env *envelope
		err := retry.Do(ctx, *t.retry, retry.IsRetryable, func() error {
			var err error
			env, err = t.doOnce(ctx, c, out)
			return err
		})
		return env, err
	}
	return t.doOnce(ctx, c, out)
}

func (t *transport) doOnce(ctx context.Context, c call, out any) (*envelope, error) {
	status, data, err := t.send(ctx, c)
	if err != nil {
		return nil, err
	}

	env, decodeErr := decodeEnvelope(data)

	if status < 200 || status > 299 {
		fe := &domain.FetchError{Op: c.op, StatusCode: status, Err: statusSentinel(status)}
		if decodeErr == nil {
			fe.Message = env.message()
		}
		if fe.Err == nil {
			fe.Err = messageSentinel(fe.Message)
		}
		return nil, fe
	}

	if decodeErr != nil {
		return nil, &domain.FetchError{Op: c.op, StatusCode: status, Err: decodeErr}
	}

	if !env.Success {
		msg := env.message()
		return nil, &domain.FetchError{Op: c.op, StatusCode: status, Message: msg, Err: messageSentinel(msg)}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &domain.FetchError{Op: c.op, StatusCode: status, Err: fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)}
		}
	}
	return env, nil
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return &env, nil
}

// statusSentinel maps HTTP status codes to domain sentinels.
func statusSentinel(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	}
	return nil
}

// messageSentinel recognises failures the API reports with a 200 status
// and success:false.
func messageSentinel(msg string) error {
	m := strings.ToLower(msg)
	switch {
	case m == "":
		return nil
	case strings.Contains(m, "unauthorized") ||
		strings.Contains(m, "invalid token") ||
		strings.Contains(m, "expired"):
		return domain.ErrUnauthorized
	case strings.Contains(m, "not found") ||
		strings.Contains(m, "does not exist"):
		return domain.ErrNotFound
	case strings.Contains(m, "rate limit") ||
		strings.Contains(m, "too many requests"):
		return domain.ErrRateLimited
	case strings.Contains(m, "already exists") ||
		strings.Contains(m, "duplicate"):
		return domain.ErrConflict
	}
	return nil
}

// IsUnauthorized reports whether err means the session is no longer
// accepted and the user must log in again.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
