package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.InitialTab != "home" {
		t.Fatalf("unexpected initial tab: %q", cfg.InitialTab)
	}
	p := filepath.Join(home, ".config", "replay", "config.json")
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.API.BaseURL = "http://localhost:8000/"
	cfg.Theme.Active = "stage-dark"
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("trailing slash should be trimmed, got %q", loaded.API.BaseURL)
	}
	if loaded.Theme.Active != "stage-dark" {
		t.Fatalf("active theme mismatch: %q", loaded.Theme.Active)
	}
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	t.Setenv("REPLAY_BASE_URL", "http://127.0.0.1:9999/")
	t.Setenv("REPLAY_DB", "/tmp/replay-test.db")
	t.Setenv("REPLAY_LOG_LEVEL", "debug")

	cfg := Default()
	ApplyEnv(&cfg)
	if cfg.API.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if p, _ := cfg.DBPath(); p != "/tmp/replay-test.db" {
		t.Fatalf("unexpected db path: %q", p)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected scheme error")
	}
	cfg.API.BaseURL = "https://"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing host error")
	}
	cfg.API.BaseURL = "https://api.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid url: %v", err)
	}
}
