package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/retry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// --- Test helpers ---

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

// success returns a success envelope around data.
func success(data any, extra map[string]any) map[string]any {
	m := map[string]any{"success": true, "data": data}
	maps.Copy(m, extra)
	return m
}

func failure(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

// apiServer serves canned responses per "METHOD /path" and records every
// request it receives.
type apiServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recorded
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{routes: make(map[string]func(http.ResponseWriter, *http.Request))}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(body),
		})
		h, ok := s.routes[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(failure("no route"))
			return
		}
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) handle(route string, h func(w http.ResponseWriter, r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = h
}

func (s *apiServer) json(route string, status int, body any) {
	s.handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (s *apiServer) raw(route string, status int, body string) {
	s.handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (s *apiServer) recorded() []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.requests...)
}

func newTestClient(t *testing.T, srv *apiServer, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(srv.URL), WithUserAgent("tsm/test")}, opts...)
	return NewClient(staticToken("tok-123"), opts...)
}

// --- Headers and auth ---

func TestClient_SendsStandardHeaders(t *testing.T) {
	srv := newAPIServer(t)
	srv.json("GET /server", http.StatusOK, success([]any{}, nil))

	c := newTestClient(t, srv)
	if _, err := c.ListServers(context.Background()); err != nil {
		t.Fatalf("ListServers: %v", err)
	}

	reqs := srv.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	h := reqs[0].header
	if got := h.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("Authorization = %q", got)
	}
	if got := h.Get("User-Agent"); got != "tsm/test" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := h.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
	if _, err := uuid.Parse(h.Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", h.Get("X-Request-ID"), err)
	}
}

func TestClient_MissingTokenFailsBeforeNetwork(t *testing.T) {
	srv := newAPIServer(t)
	c := NewClient(staticToken(""), WithBaseURL(srv.URL))

	_, err := c.ListServers(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := len(srv.recorded()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

// --- Error mapping ---

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newAPIServer(t)
			srv.json("GET /status", tt.status, failure("nope"))
			c := newTestClient(t, srv)

			_, err := c.GetStatus(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var fe *domain.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *domain.FetchError, got %T", err)
			}
			if fe.StatusCode != tt.status || fe.Message != "nope" {
				t.Errorf("FetchError = %+v", fe)
			}
		})
	}
}

func TestClient_ServerErrorIsFetchError(t *testing.T) {
	srv := newAPIServer(t)
	srv.raw("GET /status", http.StatusBadGateway, "<html>bad gateway</html>")
	c := newTestClient(t, srv)

	_, err := c.GetStatus(context.Background())
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *domain.FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", fe.StatusCode)
	}
	if !retry.IsRetryable(err) {
		t.Error("expected 502 to be retryable")
	}
}

func TestClient_UnsuccessfulEnvelope(t *testing.T) {
	srv := newAPIServer(t)
	srv.json("GET /server", http.StatusOK, map[string]any{"success": false, "error": "Server not found"})
	c := newTestClient(t, srv)

	_, err := c.GetServer(context.Background(), "7")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from message, got %v", err)
	}
	if !strings.Contains(err.Error(), "Server not found") {
		t.Errorf("error %q should carry the server message", err)
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "definitely not json"},
		{"empty", ""},
		{"wrong shape", `{"success":true,"data":{"not":"a list"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t)
			srv.raw("GET /server", http.StatusOK, tt.body)
			c := newTestClient(t, srv)

			_, err := c.ListServers(context.Background())
			if !errors.Is(err, domain.ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
			var fe *domain.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *domain.FetchError, got %T", err)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := newAPIServer(t)
	url := srv.URL
	srv.Close()

	c := NewClient(staticToken("tok"), WithBaseURL(url))
	_, err := c.ListServers(context.Background())
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *domain.FetchError, got %v", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", fe.StatusCode)
	}
}

func TestClient_RetryOnlyWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := newAPIServer(t)
	srv.handle("GET /status", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(success(map[string]any{"online": 1, "total": 2}, nil))
	})

	plain := newTestClient(t, srv)
	if _, err := plain.GetStatus(context.Background()); err == nil {
		t.Fatal("expected first call to fail without retry")
	}

	calls.Store(0)
	retrying := newTestClient(t, srv, WithRetry(retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}))
	got, err := retrying.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus with retry: %v", err)
	}
	if got.Online != 1 || got.Total != 2 {
		t.Errorf("status = %+v", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestClient_NoRetryForWrites(t *testing.T) {
	var calls atomic.Int32
	srv := newAPIServer(t)
	srv.handle("DELETE /server", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := newTestClient(t, srv, WithRetry(retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}))
	if err := c.DeleteServer(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}
