package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./stocktake.db)
	PoolSize     int    // Optional: pooled connection count (default: 5)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	SessionTimeout time.Duration // Optional: idle session lifetime (default: 1h)
	MaxAttempts    int           // Optional: failed logins before lockout (default: 5)
	Lockout        time.Duration // Optional: lockout duration (default: 15m)

	AutoBackup      bool          // Optional: run the backup scheduler (default: true)
	BackupDir       string        // Optional: backup artifact directory (default: ./backups)
	BackupInterval  time.Duration // Optional: time between automatic backups (default: 24h)
	BackupRetention time.Duration // Optional: artifact age before cleanup (default: 7 days)

	LookupBaseURL      string        // Optional: product lookup API base URL
	LookupClientID     string        // Optional: lookup API client id
	LookupClientSecret string        // Optional: lookup API client secret
	LookupTimeout      time.Duration // Optional: per-request lookup timeout (default: 10s)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 15m)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("STOCKTAKE_DATABASE_FILE", "stocktake.db"),
		PoolSize:     getEnvIntOrDefault("STOCKTAKE_POOL_SIZE", 5),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		SessionTimeout: getEnvDurationOrDefault("STOCKTAKE_SESSION_TIMEOUT", time.Hour),
		MaxAttempts:    getEnvIntOrDefault("STOCKTAKE_MAX_LOGIN_ATTEMPTS", 5),
		Lockout:        getEnvDurationOrDefault("STOCKTAKE_LOCKOUT_DURATION", 15*time.Minute),

		AutoBackup:      getEnvBoolOrDefault("STOCKTAKE_AUTO_BACKUP", true),
		BackupDir:       getEnvOrDefault("STOCKTAKE_BACKUP_DIR", "backups"),
		BackupInterval:  getEnvDurationOrDefault("STOCKTAKE_BACKUP_INTERVAL", 24*time.Hour),
		BackupRetention: getEnvDurationOrDefault("STOCKTAKE_BACKUP_RETENTION", 7*24*time.Hour),

		LookupBaseURL:      os.Getenv("STOCKTAKE_LOOKUP_BASE_URL"),
		LookupClientID:     os.Getenv("STOCKTAKE_LOOKUP_CLIENT_ID"),
		LookupClientSecret: os.Getenv("STOCKTAKE_LOOKUP_CLIENT_SECRET"),
		LookupTimeout:      getEnvDurationOrDefault("STOCKTAKE_LOOKUP_TIMEOUT", 10*time.Second),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 15*time.Minute),
	}
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
