package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config is the application configuration, read from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Store     StoreConfig     `toml:"store"`
	Inventory InventoryConfig `toml:"inventory"`
	Auth      AuthConfig      `toml:"auth"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// StoreConfig selects where the farm document is persisted.
type StoreConfig struct {
	Backend  string `toml:"backend"`   // sqlite | file
	FilePath string `toml:"file_path"` // used by the file backend
}

type InventoryConfig struct {
	// ClampBalance floors balances at zero on outbound movements.
	ClampBalance bool `toml:"clamp_balance"`
}

type AuthConfig struct {
	TokenTTL      Duration `toml:"token_ttl"`
	AllowRegister bool     `toml:"allow_register"`
	AdminEmail    string   `toml:"admin_email"`
	SecureCookie  bool     `toml:"secure_cookie"`
}

type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// Duration is a time.Duration that decodes from strings like "168h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "agrogestor.sqlite3"},
		Store: StoreConfig{
			Backend:  BackendSQLite,
			FilePath: "agrogestor.json",
		},
		Auth: AuthConfig{
			TokenTTL:      Duration{7 * 24 * time.Hour},
			AllowRegister: true,
			AdminEmail:    "admin@agrogestor.local",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}

	switch c.Store.Backend {
	case BackendSQLite:
	case BackendFile:
		if strings.TrimSpace(c.Store.FilePath) == "" {
			return errors.New("store.file_path is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid store.backend: %q", c.Store.Backend)
	}

	if c.Auth.TokenTTL.Duration <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL.Duration)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	return nil
}
