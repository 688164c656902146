// Package config handles persistent user configuration for tsm.
//
// Configuration is stored as JSON at ~/.config/tsm/config.json (or the
// platform-equivalent path returned by os.UserConfigDir). Unset values fall
// back to the defaults below; the API URL can also be overridden with the
// TSM_API_URL environment variable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	appDir   = "tsm"
	fileName = "config.json"
)

// Defaults applied when a key is unset.
const (
	DefaultAPIURL              = "https://api.theservermonitor.com"
	DefaultRefreshInterval     = 30 * time.Second
	DefaultLiveRefreshInterval = 10 * time.Second
	DefaultSessionStore        = "keyring"
	DefaultLogLevel            = "info"
)

// EnvAPIURL overrides the api-url key when set.
const EnvAPIURL = "TSM_API_URL"

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations.
type Config struct {
	APIURL              string `json:"api_url,omitempty"`
	RefreshInterval     string `json:"refresh_interval,omitempty"`
	LiveRefreshInterval string `json:"live_refresh_interval,omitempty"`
	SessionStore        string `json:"session_store,omitempty"`
	LogLevel            string `json:"log_level,omitempty"`
}

// BaseURL returns the API base URL: TSM_API_URL, then api-url, then the
// production default.
func (c *Config) BaseURL() string {
	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		return strings.TrimRight(env, "/")
	}
	if c != nil && c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return DefaultAPIURL
}

// Refresh returns the polling interval for lists and summaries.
func (c *Config) Refresh() time.Duration {
	if c == nil {
		return DefaultRefreshInterval
	}
	return durationOr(c.RefreshInterval, DefaultRefreshInterval)
}

// LiveRefresh returns the polling interval for live stats, processes and
// containers.
func (c *Config) LiveRefresh() time.Duration {
	if c == nil {
		return DefaultLiveRefreshInterval
	}
	return durationOr(c.LiveRefreshInterval, DefaultLiveRefreshInterval)
}

// SessionBackend returns the configured session backend name.
func (c *Config) SessionBackend() string {
	if c == nil || c.SessionStore == "" {
		return DefaultSessionStore
	}
	return c.SessionStore
}

// Level returns the configured log level. Unknown values fall back to info.
func (c *Config) Level() slog.Level {
	name := DefaultLogLevel
	if c != nil && c.LogLevel != "" {
		name = c.LogLevel
	}
	level, err := ParseLevel(name)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log level %q (use debug, info, warn or error)", s)
	}
	return level, nil
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Path returns the absolute path to the config file.
// If SetPath has been called, that value is returned instead.
// Otherwise it uses os.UserConfigDir which resolves to
// ~/Library/Application Support on macOS, ~/.config on Linux, and
// %AppData% on Windows.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file from disk and returns the parsed Config.
// If the file does not exist, a zero-value Config is returned (not an error).
func Load() (*Config, error) {
	return loadFrom("")
}

// loadFrom reads the config from the given path. If path is empty, the
// default Path() is used. Exported only for testing via LoadFrom.
func loadFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	return c.saveTo("")
}

// saveTo writes the config to the given path. If path is empty, the
// default Path() is used.
func (c *Config) saveTo(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}

// LoadFrom reads the config from the given path. Intended for testing.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path)
}

// SaveTo writes the config to the given path. Intended for testing.
func (c *Config) SaveTo(path string) error {
	return c.saveTo(path)
}
