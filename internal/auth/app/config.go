package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for session tokens

	DatabaseFile    string // Path to SQLite credential database (default: ./tenauth.db)
	TenantsFile     string // Path to the YAML tenant directory (default: ./tenants.yaml)
	StateFile       string // Path to the durable session state file (default: ./session-state.json)
	PepperFile      string // Path to the password hashing pepper file (default: ./pepper)
	DefaultTenantID string // Tenant used to repair sessions with no linkage

	SessionTTL          time.Duration // Lifetime of issued session tokens (default: 12h)
	ProbeTenantTimeout  time.Duration // Per-tenant legacy probe timeout (default: 2s)
	ProbeTotalTimeout   time.Duration // Overall legacy probe timeout (default: 30s)
	MigrationQueueSize  int           // Pending legacy migration jobs (default: 16)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              getEnvOrDefault("TENAUTH_ISSUER", "tenauth"),
		DatabaseFile:        getEnvOrDefault("TENAUTH_DATABASE_FILE", "tenauth.db"),
		TenantsFile:         getEnvOrDefault("TENAUTH_TENANTS_FILE", "tenants.yaml"),
		StateFile:           getEnvOrDefault("TENAUTH_STATE_FILE", "session-state.json"),
		PepperFile:          getEnvOrDefault("TENAUTH_PEPPER_FILE", "pepper"),
		DefaultTenantID:     os.Getenv("TENAUTH_DEFAULT_TENANT"),
		SessionTTL:          getEnvDurationOrDefault("TENAUTH_SESSION_TTL", 12*time.Hour),
		ProbeTenantTimeout:  getEnvDurationOrDefault("TENAUTH_PROBE_TENANT_TIMEOUT", 2*time.Second),
		ProbeTotalTimeout:   getEnvDurationOrDefault("TENAUTH_PROBE_TOTAL_TIMEOUT", 30*time.Second),
		MigrationQueueSize:  getEnvIntOrDefault("TENAUTH_MIGRATION_QUEUE_SIZE", 16),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
