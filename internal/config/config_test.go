package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&Config{}, cfg); diff != "" {
		t.Errorf("expected zero config (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsm", "config.json")

	want := &Config{APIURL: "https://staging.example.com", RefreshInterval: "1m0s", SessionStore: "file"}
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	path := filepath.Join(dir, "config.json")

	cfg := &Config{LogLevel: "debug"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSetPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	SetPath(path)
	t.Cleanup(ResetPath)

	if err := (&Config{LogLevel: "warn"}).Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", got.LogLevel)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cfg := &Config{}

	if got := cfg.BaseURL(); got != DefaultAPIURL {
		t.Errorf("BaseURL = %q", got)
	}
	if got := cfg.Refresh(); got != DefaultRefreshInterval {
		t.Errorf("Refresh = %v", got)
	}
	if got := cfg.LiveRefresh(); got != DefaultLiveRefreshInterval {
		t.Errorf("LiveRefresh = %v", got)
	}
	if got := cfg.SessionBackend(); got != DefaultSessionStore {
		t.Errorf("SessionBackend = %q", got)
	}
	if got := cfg.Level(); got != slog.LevelInfo {
		t.Errorf("Level = %v", got)
	}

	var nilCfg *Config
	if got := nilCfg.Refresh(); got != DefaultRefreshInterval {
		t.Errorf("nil Refresh = %v", got)
	}
}

func TestResolvedValues(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cfg := &Config{
		APIURL:              "http://localhost:8080/",
		RefreshInterval:     "45s",
		LiveRefreshInterval: "garbage",
		LogLevel:            "debug",
	}

	if got := cfg.BaseURL(); got != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", got)
	}
	if got := cfg.Refresh(); got != 45*time.Second {
		t.Errorf("Refresh = %v", got)
	}
	if got := cfg.LiveRefresh(); got != DefaultLiveRefreshInterval {
		t.Errorf("LiveRefresh with bad value = %v, want default", got)
	}
	if got := cfg.Level(); got != slog.LevelDebug {
		t.Errorf("Level = %v", got)
	}
}

func TestBaseURL_EnvOverride(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com/")
	cfg := &Config{APIURL: "https://file.example.com"}
	if got := cfg.BaseURL(); got != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env override", got)
	}
}
