package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	CatalogPath      string
	StoragePath      string
	StorageBaseURL   string
	DBMaxConns       int32

	// Provider switches are handed to the worker as explicit capabilities.
	GenerationDisabled bool
	RenderDisabled     bool

	WorkerPollInterval time.Duration
	WorkerReclaimEvery time.Duration
	JobLease           time.Duration
	JobMaxAttempts     int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		WebhookTolerance:   getEnvDuration("WEBHOOK_TOLERANCE_SECONDS", 300, time.Second),
		CatalogPath:        getEnv("CATALOG_MANIFEST_PATH", "./catalog/manifest.json"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
		GenerationDisabled: getEnvBool("GENERATION_PROVIDER_DISABLED", false),
		RenderDisabled:     getEnvBool("RENDER_PROVIDER_DISABLED", false),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL_MS", 2000, time.Millisecond),
		WorkerReclaimEvery: getEnvDuration("WORKER_RECLAIM_SECONDS", 30, time.Second),
		JobLease:           getEnvDuration("JOB_LEASE_SECONDS", 300, time.Second),
		JobMaxAttempts:     getEnvInt("JOB_MAX_ATTEMPTS", 3),
		HTTPReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT_SECONDS", 15, time.Second),
		HTTPWriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT_SECONDS", 30, time.Second),
		HTTPIdleTimeout:    getEnvDuration("HTTP_IDLE_TIMEOUT_SECONDS", 60, time.Second),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JobMaxAttempts <= 0 {
		return nil, fmt.Errorf("JOB_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

// RequireAPISecrets checks the secrets only the API process needs.
func (c *Config) RequireAPISecrets() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * unit
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
