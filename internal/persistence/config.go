package persistence

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the persistence gateway.
type Config struct {
	// BaseURL is the map-data server root, e.g. http://localhost:8080.
	BaseURL string

	// RequestTimeout bounds one save or load including retries
	// (default: 15 seconds).
	RequestTimeout time.Duration

	// MaxRetries is the retry count for each request (default: 3).
	MaxRetries uint64
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	timeout, _ := time.ParseDuration(getEnvOrDefault("MAPDATA_TIMEOUT", "15s"))
	retries, _ := strconv.ParseUint(getEnvOrDefault("MAPDATA_MAX_RETRIES", "3"), 10, 64)

	return Config{
		BaseURL:        getEnvOrDefault("MAPDATA_BASE_URL", "http://localhost:8080"),
		RequestTimeout: timeout,
		MaxRetries:     retries,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
