// Package config centralises configuration parsing for the signup service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the signup service.
type Config struct {
	HTTPAddress       string
	LogLevel          string
	LogFormat         string
	KafkaBrokers      []string // Empty disables roster event publishing.
	RosterTopic       string
	ConsumerGroupID   string
	MetricsAddress    string // Metrics listener for the audit consumer.
	EnforceCapacity   bool
	CORSAllowedOrigin string
	ShutdownTimeout   time.Duration
}

// Load reads an optional .env file and then environment variables into Config,
// applying defaults for local dev. Variables already set in the environment win
// over the .env file.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	return Config{
		HTTPAddress:       getEnv("HTTP_ADDRESS", ":8000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		KafkaBrokers:      splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		RosterTopic:       getEnv("ROSTER_TOPIC", "activity_roster_events"),
		ConsumerGroupID:   getEnv("CONSUMER_GROUP_ID", "roster-audit"),
		MetricsAddress:    getEnv("METRICS_ADDRESS", ":9102"),
		EnforceCapacity:   getBoolEnv("ENFORCE_CAPACITY", false),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", ""),
		ShutdownTimeout:   getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
