package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Lookup.Provider != ProviderTVMaze {
		t.Errorf("expected provider 'tvmaze', got '%s'", cfg.Lookup.Provider)
	}

	if !cfg.Library.Recursive {
		t.Error("expected Recursive to be true")
	}

	if d, err := cfg.RequestDelay(); err != nil || d != 400*time.Millisecond {
		t.Errorf("expected 400ms delay, got %v (%v)", d, err)
	}

	if len(cfg.Naming.CustomNoiseTokens) != 0 {
		t.Errorf("expected no custom tokens, got %d", len(cfg.Naming.CustomNoiseTokens))
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("expected default theme, got %s", cfg.UI.Theme)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config was not written: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Library.RootFolder = "/media/tv"
	cfg.Naming.FormatOnly = true
	cfg.UI.Theme = "light"
	if _, err := cfg.AddNoiseTokens("yify, qxr"); err != nil {
		t.Fatal(err)
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Library.RootFolder != "/media/tv" || !loaded.Naming.FormatOnly || loaded.UI.Theme != "light" {
		t.Errorf("values not preserved: %+v", loaded)
	}
	if strings.Join(loaded.Naming.CustomNoiseTokens, ",") != "qxr,yify" {
		t.Errorf("tokens = %v", loaded.Naming.CustomNoiseTokens)
	}
}

func TestLoadFromKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %s", cfg.UI.Theme)
	}
	if cfg.Lookup.BaseURL != DefaultBaseURL || cfg.Lookup.Retries != 1 {
		t.Errorf("defaults lost: %+v", cfg.Lookup)
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui\ntheme = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad provider", func(c *Config) { c.Lookup.Provider = "tvdb" }, true},
		{"bad delay", func(c *Config) { c.Lookup.RequestDelay = "soon" }, true},
		{"negative delay", func(c *Config) { c.Lookup.RequestDelay = "-1s" }, true},
		{"no delay", func(c *Config) { c.Lookup.RequestDelay = "" }, false},
		{"negative retries", func(c *Config) { c.Lookup.Retries = -1 }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, true},
		{"missing root", func(c *Config) { c.Library.RootFolder = "/nonexistent/path" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Library.RootFolder = file
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for a file root")
	}
}

func TestNoiseTokens(t *testing.T) {
	cfg := DefaultConfig()

	added, err := cfg.AddNoiseTokens("YIFY qxr, yify")
	if err != nil {
		t.Fatalf("failed to add tokens: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 new tokens, got %d", added)
	}

	added, _ = cfg.AddNoiseTokens("qxr")
	if added != 0 {
		t.Errorf("duplicate token should not be added, got %d", added)
	}

	if _, err := cfg.AddNoiseTokens(" , "); err == nil {
		t.Error("expected error for empty input")
	}

	if err := cfg.RemoveNoiseToken("QXR"); err != nil {
		t.Errorf("failed to remove token: %v", err)
	}
	if err := cfg.RemoveNoiseToken("qxr"); err == nil {
		t.Error("expected error removing missing token")
	}
	if len(cfg.Naming.CustomNoiseTokens) != 1 || cfg.Naming.CustomNoiseTokens[0] != "yify" {
		t.Errorf("tokens = %v", cfg.Naming.CustomNoiseTokens)
	}
}
