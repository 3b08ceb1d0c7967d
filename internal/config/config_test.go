package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if cfg.Inventory.ClampBalance {
		t.Error("expected clamp_balance off by default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agrogestor.toml")
	content := `
[server]
addr = "127.0.0.1:9000"

[store]
backend = "file"
file_path = "/var/lib/agrogestor/db.json"

[inventory]
clamp_balance = true

[auth]
token_ttl = "24h"
allow_register = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr override, got %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.FilePath != "/var/lib/agrogestor/db.json" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if !cfg.Inventory.ClampBalance {
		t.Error("expected clamp_balance true")
	}
	if cfg.Auth.TokenTTL.Duration != 24*time.Hour {
		t.Errorf("expected 24h ttl, got %s", cfg.Auth.TokenTTL.Duration)
	}
	if cfg.Auth.AllowRegister {
		t.Error("expected allow_register false")
	}
	// Untouched keys keep their defaults.
	if cfg.Database.Path != "agrogestor.sqlite3" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty addr", func(c *Config) { c.Server.Addr = " " }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, true},
		{"file backend without path", func(c *Config) {
			c.Store.Backend = BackendFile
			c.Store.FilePath = ""
		}, true},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL.Duration = 0 }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\naddr ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, Default()); err == nil {
		t.Error("expected decode error")
	}
}
