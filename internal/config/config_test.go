package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Inbox.PageSize != 15 {
		t.Fatalf("expected page size 15, got %d", cfg.Inbox.PageSize)
	}
	if cfg.Inbox.DefaultQuery != "in:inbox" {
		t.Fatalf("expected default query in:inbox, got %q", cfg.Inbox.DefaultQuery)
	}
	if cfg.Gmail.UserID != "me" {
		t.Fatalf("expected user id me, got %q", cfg.Gmail.UserID)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfigWithEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := DefaultConfig()
	cfg.Auth.ClientID = "client-123"
	cfg.Inbox.PageSize = 25
	cfg.Completion.APIKey = "file-key"

	path, err := Save(cfg)
	if err != nil {
		t.Fatalf("save config: %v", err)
	}
	if !strings.HasPrefix(path, tmp) {
		t.Fatalf("config saved outside HOME: %s", path)
	}

	t.Setenv("SMARTINBOX_COMPLETION_API_KEY", "env-key")
	t.Setenv("SMARTINBOX_AUTH_ACCESS_TOKEN", "ya29.token")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if loaded.Completion.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", loaded.Completion.APIKey)
	}
	if loaded.Auth.ClientID != "client-123" {
		t.Fatalf("expected client id from file, got %q", loaded.Auth.ClientID)
	}
	if loaded.Inbox.PageSize != 25 {
		t.Fatalf("expected page size from file, got %d", loaded.Inbox.PageSize)
	}
	if loaded.Auth.AccessToken != "ya29.token" {
		t.Fatalf("expected access token from env, got %q", loaded.Auth.AccessToken)
	}
}

func TestSaveNeverWritesAccessToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Auth.AccessToken = "ya29.secret"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "ya29.secret") {
		t.Fatal("access token must not be persisted")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("inbox: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestRedact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Completion.APIKey = "secret"
	cfg.Auth.AccessToken = "ya29.abc"

	masked := Redact(cfg)

	if masked.Completion.APIKey != "****" {
		t.Fatalf("api key not masked: %q", masked.Completion.APIKey)
	}
	if strings.Contains(masked.Auth.AccessToken, "ya29") {
		t.Fatalf("access token not masked: %q", masked.Auth.AccessToken)
	}
	if cfg.Completion.APIKey != "secret" {
		t.Fatal("Redact must not modify its input")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.Gmail.BaseURL = "" }, wantErr: "base_url is required"},
		{name: "base url without slash", mutate: func(c *Config) { c.Gmail.BaseURL = "http://localhost:1234" }, wantErr: "must end with"},
		{name: "zero page size", mutate: func(c *Config) { c.Inbox.PageSize = 0 }, wantErr: "page_size"},
		{name: "huge page size", mutate: func(c *Config) { c.Inbox.PageSize = 1000 }, wantErr: "page_size"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "chatty" }, wantErr: "log.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAuth(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateAuth(cfg); err == nil {
		t.Fatal("expected missing client id error")
	}

	cfg.Auth.ClientID = "client"
	if err := ValidateAuth(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
