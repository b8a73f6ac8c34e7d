package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "TASK_STORE", "TASK_DB_PATH", "REDIS_ADDR", "ACCESS_TOKEN_TTL", "AUTH_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.TaskStore != TaskStoreKV {
		t.Errorf("TaskStore = %q, want %q", cfg.TaskStore, TaskStoreKV)
	}
	if cfg.TaskDBPath != "data/tasks.db" {
		t.Errorf("TaskDBPath = %q, want data/tasks.db", cfg.TaskDBPath)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %s, want 15m", cfg.AccessTokenTTL)
	}
	if cfg.CacheEnabled() {
		t.Error("CacheEnabled() = true without REDIS_ADDR")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TASK_STORE", "SQLite")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TaskStore != TaskStoreSQLite {
		t.Errorf("TaskStore = %q, want %q", cfg.TaskStore, TaskStoreSQLite)
	}
	if !cfg.CacheEnabled() {
		t.Error("CacheEnabled() = false with REDIS_ADDR set")
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s, want 30s", cfg.CacheTTL)
	}
	if cfg.AuthRateLimit != 20 {
		t.Errorf("AuthRateLimit = %d, want fallback 20", cfg.AuthRateLimit)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			TaskStore:       TaskStoreKV,
			JWTSecretKey:    "secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			AuthRateLimit:   10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown task store", mutate: func(c *Config) { c.TaskStore = "postgres" }, wantErr: true},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecretKey = "" }, wantErr: true},
		{name: "zero access ttl", mutate: func(c *Config) { c.AccessTokenTTL = 0 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.AuthRateLimit = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
