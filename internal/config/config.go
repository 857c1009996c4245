package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	FeedAddr    string
	CORSOrigins []string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string // redis://[:password@]host:port/db
}

// PostgresConfig holds the event ledger connection. An empty DSN disables the ledger.
type PostgresConfig struct {
	DSN string
}

// StreamConfig defines which Redis streams the live feed consumes from
type StreamConfig struct {
	// Sport-specific score update streams (e.g., scores.updates.cricket)
	ScoreUpdatesStreams []string

	// Consumer group and ID
	ConsumerGroup string
	ConsumerID    string
}

// RetryConfig controls retries of sink writes
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Stream   StreamConfig
	Retry    RetryConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("SERVER_ADDR", ":8080"),
			FeedAddr:    getEnv("FEED_ADDR", ":8081"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:19006"}),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6380"),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("LEDGER_DSN", ""),
		},
		Stream: loadStreamConfig(),
		Retry: RetryConfig{
			MaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvDuration("RETRY_INITIAL_DELAY", 100*time.Millisecond),
		},
	}
}

// loadStreamConfig loads stream configuration
// Supports multiple sports via comma-separated SPORTS environment variable
func loadStreamConfig() StreamConfig {
	sports := getEnvList("SPORTS", []string{"cricket"})

	streams := make([]string, 0, len(sports))
	for _, sport := range sports {
		streams = append(streams, fmt.Sprintf("scores.updates.%s", sport))
	}

	return StreamConfig{
		ScoreUpdatesStreams: streams,
		ConsumerGroup:       getEnv("CONSUMER_GROUP", "score-feed"),
		ConsumerID:          getEnv("CONSUMER_ID", "feed-1"),
	}
}

// GetAllStreams returns all streams to consume from
func (sc *StreamConfig) GetAllStreams() []string {
	streams := make([]string, 0, len(sc.ScoreUpdatesStreams))
	streams = append(streams, sc.ScoreUpdatesStreams...)
	return streams
}

// LedgerEnabled reports whether a Postgres ledger is configured
func (c *Config) LedgerEnabled() bool {
	return c.Postgres.DSN != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
