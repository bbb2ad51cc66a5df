package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server        ServerConfig   `toml:"server"`
	Planning      PlanningConfig `toml:"planning"`
	Notifications NotifyConfig   `toml:"notifications"`
	Log           LogConfig      `toml:"log"`
}

type ServerConfig struct {
	BaseURL         string `toml:"base_url"`
	SessionID       string `toml:"session_id"`
	CSRFToken       string `toml:"csrf_token"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxRetries      int    `toml:"max_retries"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

type PlanningConfig struct {
	DefaultView     string `toml:"default_view"`  // "workers" or "sites"
	DefaultRange    string `toml:"default_range"` // "week" or "month"
	PersistCollapse bool   `toml:"persist_collapse"`
}

type NotifyConfig struct {
	Desktop      bool `toml:"desktop"`
	ToastSeconds int  `toml:"toast_seconds"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // defaults to mybtp.log in the config dir
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Planning: PlanningConfig{
			DefaultView:  "workers",
			DefaultRange: "week",
		},
		Notifications: NotifyConfig{
			ToastSeconds: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func (n NotifyConfig) ToastDuration() time.Duration {
	return time.Duration(n.ToastSeconds) * time.Second
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mybtp"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath is where the TUI writes its log, since it owns the terminal.
func LogPath(cfg *Config) (string, error) {
	if cfg.Log.File != "" {
		return cfg.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mybtp.log"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults.
// A .env file in the working directory is loaded first so its values take
// part in the environment overrides.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYBTP_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("MYBTP_SESSION_ID"); v != "" {
		cfg.Server.SessionID = v
	}
	if v := os.Getenv("MYBTP_CSRF_TOKEN"); v != "" {
		cfg.Server.CSRFToken = v
	}
	if v := os.Getenv("MYBTP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DefaultFile is the commented config written on first `mybtp config`.
func DefaultFile() string {
	cfg := DefaultConfig()
	return fmt.Sprintf(`[server]
base_url = %q
# Value of the sessionid cookie of a logged-in browser session.
session_id = ""
csrf_token = ""
timeout_seconds = %d
max_retries = 0
cache_ttl_seconds = 0

[planning]
default_view = %q
default_range = %q
persist_collapse = false

[notifications]
desktop = false
toast_seconds = %d

[log]
level = %q
file = ""
`,
		cfg.Server.BaseURL,
		cfg.Server.TimeoutSeconds,
		cfg.Planning.DefaultView,
		cfg.Planning.DefaultRange,
		cfg.Notifications.ToastSeconds,
		cfg.Log.Level,
	)
}

// SaveSession stores the session cookie in the config file using a
// read-modify-write approach to preserve other settings.
func SaveSession(path, sessionID, csrfToken string) error {
	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	server, ok := cfg["server"].(map[string]any)
	if !ok {
		server = make(map[string]any)
	}
	server["session_id"] = sessionID
	if csrfToken != "" {
		server["csrf_token"] = csrfToken
	}
	cfg["server"] = server

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0600)
}
