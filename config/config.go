// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Task persistence modes.
const (
	TaskStoreKV     = "kv"
	TaskStoreSQLite = "sqlite"
)

// Config holds every server setting.
type Config struct {
	Port     string
	DataDir  string
	NATSPort int

	TaskStore  string
	TaskDBPath string
	AuthDBPath string

	JWTSecretKey    string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	AccessLogPath      string
	CORSAllowedOrigins string
	AuthRateLimit      int

	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		DataDir:            dataDir,
		NATSPort:           getEnvInt("NATS_PORT", 4222),
		TaskStore:          strings.ToLower(getEnv("TASK_STORE", TaskStoreKV)),
		TaskDBPath:         getEnv("TASK_DB_PATH", filepath.Join(dataDir, "tasks.db")),
		AuthDBPath:         getEnv("AUTH_DB_PATH", filepath.Join(dataDir, "auth.db")),
		JWTSecretKey:       getEnv("JWT_SECRET_KEY", "change-me-in-production"),
		JWTIssuer:          getEnv("JWT_ISSUER", "task-tracker"),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		AccessLogPath:      os.Getenv("ACCESS_LOG_PATH"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.TaskStore != TaskStoreKV && c.TaskStore != TaskStoreSQLite {
		return fmt.Errorf("TASK_STORE must be %q or %q, got %q", TaskStoreKV, TaskStoreSQLite, c.TaskStore)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", c.AuthRateLimit)
	}
	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// JetStreamDir is where the embedded NATS server keeps KV buckets.
func (c *Config) JetStreamDir() string {
	return filepath.Join(c.DataDir, "jetstream")
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
