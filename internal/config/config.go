package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"replay/internal/app"
)

const CurrentVersion = 1

const DefaultBaseURL = "https://replay-production-69e1.up.railway.app"

type Config struct {
	Version       int                 `json:"version"`
	API           APIConfig           `json:"api"`
	Storage       StorageConfig       `json:"storage"`
	Theme         ThemeConfig         `json:"theme"`
	Log           LogConfig           `json:"log"`
	Notifications NotificationsConfig `json:"notifications"`
	InitialTab    string              `json:"initial_tab"`
}

type APIConfig struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds of zero leaves requests without a client-side deadline.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type StorageConfig struct {
	Path string `json:"path"`
}

type ThemeConfig struct {
	Active string `json:"active"`
}

type LogConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

type NotificationsConfig struct {
	Live bool `json:"live"`
}

func Default() Config {
	return Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: 20,
		},
		Theme:      ThemeConfig{Active: "default"},
		Log:        LogConfig{Level: "info"},
		InitialTab: "home",
	}
}

func EnsureDefaults(cfg *Config) {
	if cfg.Version <= 0 {
		cfg.Version = CurrentVersion
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSeconds < 0 {
		cfg.API.TimeoutSeconds = 0
	}
	if cfg.Theme.Active == "" {
		cfg.Theme.Active = "default"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.InitialTab == "" {
		cfg.InitialTab = "home"
	}
}

// ApplyEnv overlays REPLAY_* environment variables on top of the file values.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("REPLAY_BASE_URL")); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("REPLAY_DB")); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("REPLAY_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
}

func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url: missing host")
	}
	return nil
}

// DBPath resolves the token database location, falling back to the data dir.
func (c Config) DBPath() (string, error) {
	if strings.TrimSpace(c.Storage.Path) != "" {
		return c.Storage.Path, nil
	}
	return app.DefaultDBPath()
}

func (c Config) LogPath() (string, error) {
	if strings.TrimSpace(c.Log.Path) != "" {
		return c.Log.Path, nil
	}
	return app.DefaultLogPath()
}

func Dir() (string, error) {
	return app.ConfigDir()
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ThemesDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

func Load() (Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", cfgPath, err)
	}
	EnsureDefaults(&cfg)
	return cfg, nil
}

func Save(cfg Config) error {
	EnsureDefaults(&cfg)
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "themes"), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "config.json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, "config.json"))
}
