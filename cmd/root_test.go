package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"nathanbeddoewebdev/tsm/internal/config"
)

// fakeAPI serves just enough of the monitoring API for an end-to-end run.
func fakeAPI(t *testing.T, created *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /whmcs", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "hunter2" {
			write(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
			return
		}
		write(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"result": "success",
			"userid": 42,
			"token":  "tok-abc",
			"client": map[string]any{"email": creds["email"], "firstname": "Ada", "lastname": "Lovelace"},
		}})
	})
	mux.HandleFunc("GET /server", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			write(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
			return
		}
		write(w, http.StatusOK, map[string]any{"success": true, "count": 1, "data": []any{
			map[string]any{"id": 1, "server_name": "web-1", "unique_identifier": "abc", "created_at": "2024-05-01T10:00:00Z"},
		}})
	})
	mux.HandleFunc("POST /server", func(w http.ResponseWriter, r *http.Request) {
		created.Add(1)
		write(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 2, "server_name": "web-2"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupHome isolates config, cache and the session file under a temp dir
// and points the client at srv.
func setupHome(t *testing.T, srv *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvAPIURL, srv.URL)

	cfg := &config.Config{SessionStore: "file"}
	if err := cfg.SaveTo(filepath.Join(dir, "config", "tsm", "config.json")); err != nil {
		t.Fatalf("save config: %v", err)
	}
}

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var closer io.Closer
	root := rootCmd(&closer)
	var outBuf, errBuf bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	if closer != nil {
		closer.Close()
	}
	return outBuf.String(), errBuf.String(), err
}

func TestLoginListLogout(t *testing.T) {
	var created atomic.Int32
	srv := fakeAPI(t, &created)
	setupHome(t, srv)

	if _, _, err := run(t, "", "server", "list"); err == nil || !strings.Contains(err.Error(), "tsm auth login") {
		t.Fatalf("expected a login hint before signing in, got %v", err)
	}

	stdout, _, err := run(t, "hunter2\n", "auth", "login", "--email", "ops@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stdout, "Logged in as Ada Lovelace") {
		t.Errorf("unexpected login output: %s", stdout)
	}

	stdout, _, err = run(t, "", "auth", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "ops@example.com") || !strings.Contains(stdout, srv.URL) {
		t.Errorf("unexpected status output: %s", stdout)
	}

	stdout, _, err = run(t, "", "server", "list")
	if err != nil {
		t.Fatalf("server list: %v", err)
	}
	if !strings.Contains(stdout, "web-1") || !strings.Contains(stdout, "NAME") {
		t.Errorf("unexpected server list: %s", stdout)
	}

	stdout, _, err = run(t, "", "auth", "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(stdout, "Logged out ops@example.com") {
		t.Errorf("unexpected logout output: %s", stdout)
	}

	stdout, _, _ = run(t, "", "auth", "status")
	if !strings.Contains(stdout, "Not logged in") {
		t.Errorf("expected logged-out status, got: %s", stdout)
	}
}

func TestLogin_RejectedIsAudited(t *testing.T) {
	var created atomic.Int32
	srv := fakeAPI(t, &created)
	setupHome(t, srv)

	_, _, err := run(t, "wrong\n", "auth", "login", "--email", "ops@example.com")
	if err == nil {
		t.Fatal("expected login to fail")
	}

	stdout, _, err := run(t, "", "audit", "list", "-o", "json")
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	var entries []struct {
		Command string `json:"command"`
		Account string `json:"account"`
		Outcome string `json:"outcome"`
		Args    string `json:"args"`
	}
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode audit: %v\n%s", err, stdout)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d: %s", len(entries), stdout)
	}
	got := entries[0]
	if got.Command != "tsm auth login" || got.Account != "ops@example.com" || got.Outcome != "error" {
		t.Errorf("unexpected audit entry: %+v", got)
	}
	if strings.Contains(got.Args, "wrong") {
		t.Errorf("password leaked into audit args: %q", got.Args)
	}
}

func TestServerCreate_ValidatesBeforeSending(t *testing.T) {
	var created atomic.Int32
	srv := fakeAPI(t, &created)
	setupHome(t, srv)

	if _, _, err := run(t, "hunter2\n", "auth", "login", "--email", "ops@example.com"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, _, err := run(t, "", "server", "create", "--name", "web\t01")
	if err == nil || !strings.Contains(err.Error(), "control character") {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if created.Load() != 0 {
		t.Errorf("invalid server was sent to the API")
	}

	stdout, _, err := run(t, "", "server", "create", "--name", "Production DB")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(stdout, "Server created.") {
		t.Errorf("unexpected create output: %s", stdout)
	}
	if created.Load() != 1 {
		t.Errorf("expected one create request, got %d", created.Load())
	}
}
