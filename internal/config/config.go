// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Ledger settings.
	IDPrefix string // Identifier prefix for new records, e.g. "DEC".

	// Snapshot settings.
	SnapshotPath     string        // SQLite file for durable snapshots; empty disables persistence.
	SnapshotInterval time.Duration // How often the background snapshot runs.

	// JWT settings.
	JWTPrivateKeyPath string // Path to Ed25519 private key PEM file.
	JWTPublicKeyPath  string // Path to Ed25519 public key PEM file.
	JWTExpiration     time.Duration

	// API key bootstrap. One key per role; empty disables that role.
	AdminAPIKey  string
	EditorAPIKey string
	ReaderAPIKey string

	// Rate limiting.
	RateLimitRPM   int // Requests per minute per client; 0 disables limiting.
	RateLimitBurst int

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("KEIFU_PORT", 8080),
		ReadTimeout:         envDuration("KEIFU_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("KEIFU_WRITE_TIMEOUT", 30*time.Second),
		IDPrefix:            envStr("KEIFU_ID_PREFIX", "DEC"),
		SnapshotPath:        envStr("KEIFU_SNAPSHOT_PATH", ""),
		SnapshotInterval:    envDuration("KEIFU_SNAPSHOT_INTERVAL", 30*time.Second),
		JWTPrivateKeyPath:   envStr("KEIFU_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:    envStr("KEIFU_JWT_PUBLIC_KEY", ""),
		JWTExpiration:       envDuration("KEIFU_JWT_EXPIRATION", 24*time.Hour),
		AdminAPIKey:         envStr("KEIFU_ADMIN_API_KEY", ""),
		EditorAPIKey:        envStr("KEIFU_EDITOR_API_KEY", ""),
		ReaderAPIKey:        envStr("KEIFU_READER_API_KEY", ""),
		RateLimitRPM:        envInt("KEIFU_RATE_LIMIT_RPM", 300),
		RateLimitBurst:      envInt("KEIFU_RATE_LIMIT_BURST", 50),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "keifu"),
		LogLevel:            envStr("KEIFU_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(envInt("KEIFU_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: KEIFU_PORT must be a valid port number")
	}
	if c.IDPrefix == "" {
		return fmt.Errorf("config: KEIFU_ID_PREFIX must not be empty")
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("config: KEIFU_SNAPSHOT_INTERVAL must be positive")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("config: KEIFU_JWT_EXPIRATION must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: KEIFU_MAX_REQUEST_BODY_BYTES must be positive")
	}
	if c.RateLimitRPM < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config: rate limit settings must not be negative")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
