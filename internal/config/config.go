// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with AGENTSTUDIO_STORAGE.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage settings.
	Storage     string // StoragePostgres or StorageSQLite.
	DatabaseURL string // PgBouncer or direct Postgres URL for queries.
	NotifyURL   string // Direct Postgres URL for LISTEN/NOTIFY; empty keeps change events process-local.
	SQLitePath  string

	// Image uploads. Disabled when MinIOEndpoint is empty.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOSecure    bool
	MinIOPublicURL string
	MaxImageBytes  int64

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Rate limiting of mutating requests, per client IP.
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
	ShutdownTimeout     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed variable is reported, not just the first.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	intVar := func(key string, def int) int {
		v, err := envInt(key, def)
		collect(err)
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := envBool(key, def)
		collect(err)
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		collect(err)
		return v
	}
	floatVar := func(key string, def float64) float64 {
		v, err := envFloat(key, def)
		collect(err)
		return v
	}

	cfg := Config{
		Port:                intVar("AGENTSTUDIO_PORT", 8080),
		ReadTimeout:         durVar("AGENTSTUDIO_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        durVar("AGENTSTUDIO_WRITE_TIMEOUT", 30*time.Second),
		Storage:             strings.ToLower(envStr("AGENTSTUDIO_STORAGE", StorageSQLite)),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		NotifyURL:           envStr("NOTIFY_URL", ""),
		SQLitePath:          envStr("AGENTSTUDIO_SQLITE_PATH", "data/agentstudio.db"),
		MinIOEndpoint:       envStr("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      envStr("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      envStr("MINIO_SECRET_KEY", ""),
		MinIOBucket:         envStr("MINIO_BUCKET", "agent-images"),
		MinIOSecure:         boolVar("MINIO_SECURE", false),
		MinIOPublicURL:      envStr("MINIO_PUBLIC_URL", ""),
		MaxImageBytes:       int64(intVar("AGENTSTUDIO_MAX_IMAGE_BYTES", 5*1024*1024)), // 5 MB default
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        boolVar("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "agentstudio"),
		RateLimitEnabled:    boolVar("AGENTSTUDIO_RATE_LIMIT_ENABLED", true),
		RateLimitRPS:        floatVar("AGENTSTUDIO_RATE_LIMIT_RPS", 5),
		RateLimitBurst:      intVar("AGENTSTUDIO_RATE_LIMIT_BURST", 20),
		LogLevel:            envStr("AGENTSTUDIO_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(intVar("AGENTSTUDIO_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
		ShutdownTimeout:     durVar("AGENTSTUDIO_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("AGENTSTUDIO_PORT must be between 1 and 65535"))
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required when AGENTSTUDIO_STORAGE=postgres"))
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("AGENTSTUDIO_SQLITE_PATH is required when AGENTSTUDIO_STORAGE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("AGENTSTUDIO_STORAGE must be %q or %q, got %q", StoragePostgres, StorageSQLite, c.Storage))
	}
	if c.MaxRequestBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("AGENTSTUDIO_MAX_REQUEST_BODY_BYTES must be positive"))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("AGENTSTUDIO_MAX_IMAGE_BYTES must be positive"))
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, fmt.Errorf("AGENTSTUDIO_RATE_LIMIT_RPS and AGENTSTUDIO_RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}
	if c.MinIOEndpoint != "" && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "" || c.MinIOBucket == "") {
		errs = append(errs, fmt.Errorf("MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when MINIO_ENDPOINT is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ImagesEnabled reports whether an object store is configured for uploads.
func (c Config) ImagesEnabled() bool {
	return c.MinIOEndpoint != ""
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
