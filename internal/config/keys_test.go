package config

import (
	"strings"
	"testing"
)

func TestLookup_Exists(t *testing.T) {
	spec := Lookup("refresh-interval")
	if spec == nil {
		t.Fatal("expected to find key 'refresh-interval', got nil")
	}
	if spec.Name != "refresh-interval" {
		t.Errorf("expected Name %q, got %q", "refresh-interval", spec.Name)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	spec := Lookup("  API-URL ")
	if spec == nil {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if spec.Name != "api-url" {
		t.Errorf("expected Name %q, got %q", "api-url", spec.Name)
	}
}

func TestLookup_NotFound(t *testing.T) {
	if spec := Lookup("default-provider"); spec != nil {
		t.Errorf("expected nil for unknown key, got %+v", spec)
	}
}

func TestKeys_AllComplete(t *testing.T) {
	for _, k := range Keys {
		if k.Get == nil {
			t.Errorf("key %q has nil Get function", k.Name)
		}
		if k.Set == nil {
			t.Errorf("key %q has nil Set function", k.Name)
		}
		if k.Description == "" {
			t.Errorf("key %q has empty Description", k.Name)
		}
		if k.Default == "" {
			t.Errorf("key %q has empty Default", k.Name)
		}
	}
}

func TestKeys_SetValid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"api-url", "https://staging.example.com/", "https://staging.example.com"},
		{"refresh-interval", "1m", "1m0s"},
		{"live-refresh-interval", "5s", "5s"},
		{"session-store", "FILE", "file"},
		{"log-level", "Debug", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := &Config{}
			spec := Lookup(tt.key)
			if err := spec.Set(cfg, tt.value); err != nil {
				t.Fatalf("Set(%q): %v", tt.value, err)
			}
			if got := spec.Get(cfg); got != tt.want {
				t.Errorf("Get = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeys_SetInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"api-url", "ftp://example.com"},
		{"api-url", "not a url"},
		{"refresh-interval", "soon"},
		{"refresh-interval", "100ms"},
		{"live-refresh-interval", "-5s"},
		{"session-store", "vault"},
		{"log-level", "chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := &Config{}
			if err := Lookup(tt.key).Set(cfg, tt.value); err == nil {
				t.Errorf("expected error for %q", tt.value)
			}
			if got := Lookup(tt.key).Get(cfg); got != "" {
				t.Errorf("invalid value leaked into config: %q", got)
			}
		})
	}
}

func TestKeys_SetEmptyUnsets(t *testing.T) {
	for _, k := range Keys {
		cfg := &Config{}
		_ = k.Set(cfg, k.Default)
		if err := k.Set(cfg, ""); err != nil {
			t.Errorf("key %q: unset failed: %v", k.Name, err)
		}
		if got := k.Get(cfg); got != "" {
			t.Errorf("key %q: expected unset, got %q", k.Name, got)
		}
	}
}

func TestKeyNames(t *testing.T) {
	names := KeyNames()
	if len(names) != len(Keys) {
		t.Fatalf("expected %d names, got %d", len(Keys), len(names))
	}
	for i, name := range names {
		if name != Keys[i].Name {
			t.Errorf("index %d: expected %q, got %q", i, Keys[i].Name, name)
		}
	}
}

func TestKeysHelp_ContainsAllKeys(t *testing.T) {
	help := KeysHelp()
	if !strings.Contains(help, "Available keys:") {
		t.Error("expected 'Available keys:' header in help output")
	}
	for _, k := range Keys {
		if !strings.Contains(help, k.Name) {
			t.Errorf("expected key %q in help output", k.Name)
		}
	}
}
