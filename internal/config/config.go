package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseDriver   string
	DatabaseURL      string
	ServerPort       string
	FrontendURLs     []string
	EnableHSTS       bool
	RedisURL         string
	RateLimit        string
	StatsCacheTTL    time.Duration
	RabbitMQURL      string
	RabbitMQPrefetch int
	RebuildInterval  time.Duration
	DLQRetention     time.Duration
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	Environment      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		DatabaseDriver:   env.get("DATABASE_DRIVER", "postgres"),
		DatabaseURL:      env.get("DATABASE_URL", ""),
		ServerPort:       env.get("SERVER_PORT", "8080"),
		FrontendURLs:     splitList(env.get("FRONTEND_URL", "http://localhost:3000")),
		EnableHSTS:       env.getBool("ENABLE_HSTS", false),
		RedisURL:         env.get("REDIS_URL", ""),
		RateLimit:        env.get("RATE_LIMIT", "20-S"),
		StatsCacheTTL:    time.Duration(env.getInt("STATS_CACHE_TTL_SECONDS", 300)) * time.Second,
		RabbitMQURL:      env.get("RABBITMQ_URL", ""),
		RabbitMQPrefetch: env.getInt("RABBITMQ_PREFETCH", 1),
		RebuildInterval:  time.Duration(env.getInt("STATS_REBUILD_INTERVAL_MINUTES", 0)) * time.Minute,
		DLQRetention:     time.Duration(env.getInt("DLQ_RETENTION_HOURS", 168)) * time.Hour,
		WorkerDebugMode:  env.getBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  env.getBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      env.getBool("OTEL_ENABLED", false),
		OTELEndpoint:     env.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Environment:      env.get("ENVIRONMENT", "production"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQPrefetch < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", cfg.RabbitMQPrefetch)
	}

	if cfg.RebuildInterval < 0 {
		return nil, fmt.Errorf("STATS_REBUILD_INTERVAL_MINUTES must not be negative")
	}

	return cfg, nil
}

// RequireQueue reports an error when no RabbitMQ URL is configured. The worker cannot run without one.
func (c *Config) RequireQueue() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the stats rebuild worker")
	}
	return nil
}

// IsDevelopment reports whether ENVIRONMENT selects development behaviour
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

type envReader struct {
	lookup func(string) string
}

func (e envReader) get(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) getBool(key string, defaultValue bool) bool {
	if value := e.lookup(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e envReader) getInt(key string, defaultValue int) int {
	if value := e.lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
