package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "refresh-interval").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Default is shown when the key is unset.
	Default string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set validates value and applies it to the given Config (in memory
	// only; the caller is responsible for calling Save). An empty value
	// unsets the key.
	Set func(cfg *Config, value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "api-url",
		Description: "Base URL of The Server Monitor API (overridden by " + EnvAPIURL + ")",
		Default:     DefaultAPIURL,
		Get:         func(cfg *Config) string { return cfg.APIURL },
		Set: func(cfg *Config, v string) error {
			v = strings.TrimRight(strings.TrimSpace(v), "/")
			if v != "" {
				if err := validateURL(v); err != nil {
					return err
				}
			}
			cfg.APIURL = v
			return nil
		},
	},
	{
		Name:        "refresh-interval",
		Description: "How often the dashboard refreshes lists and summaries",
		Default:     DefaultRefreshInterval.String(),
		Get:         func(cfg *Config) string { return cfg.RefreshInterval },
		Set:         durationSetter(func(cfg *Config) *string { return &cfg.RefreshInterval }),
	},
	{
		Name:        "live-refresh-interval",
		Description: "How often the dashboard refreshes live stats, processes and containers",
		Default:     DefaultLiveRefreshInterval.String(),
		Get:         func(cfg *Config) string { return cfg.LiveRefreshInterval },
		Set:         durationSetter(func(cfg *Config) *string { return &cfg.LiveRefreshInterval }),
	},
	{
		Name:        "session-store",
		Description: "Where the login session is kept: keyring or file",
		Default:     DefaultSessionStore,
		Get:         func(cfg *Config) string { return cfg.SessionStore },
		Set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			switch v {
			case "", "keyring", "file":
				cfg.SessionStore = v
				return nil
			}
			return fmt.Errorf("invalid session store %q (use keyring or file)", v)
		},
	},
	{
		Name:        "log-level",
		Description: "Minimum level written to the log file: debug, info, warn or error",
		Default:     DefaultLogLevel,
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				if _, err := ParseLevel(v); err != nil {
					return err
				}
			}
			cfg.LogLevel = v
			return nil
		},
	},
}

// minRefresh keeps a misconfigured interval from hammering the API.
const minRefresh = time.Second

func durationSetter(field func(cfg *Config) *string) func(cfg *Config, v string) error {
	return func(cfg *Config, v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			*field(cfg) = ""
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q (e.g. 30s, 1m)", v)
		}
		if d < minRefresh {
			return fmt.Errorf("interval must be at least %s, got %s", minRefresh, d)
		}
		*field(cfg) = d.String()
		return nil
	}
}

func validateURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q (must be http:// or https://)", v)
	}
	return nil
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s (default %s)\n", maxLen, k.Name, k.Description, k.Default)
	}
	return b.String()
}
