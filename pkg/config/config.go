// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Storage
	DatabaseDriver string
	SQLitePath     string
	DatabaseURL    string
	DBMaxConns     int

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL   string
	RabbitMQQueue string

	// Cache
	CacheScoreTTL   time.Duration
	CacheListingTTL time.Duration
	CacheBreaker    bool

	// Baselines
	BaselineWindowDays   int
	BaselineMinSamples   int
	BaselineExcludeToday bool

	// Scoring
	ScoringProfile   string
	Timezone         string
	GoalHoursPerWeek float64

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("PULSE_ENV", "development"),
		LogLevel:  getEnv("PULSE_LOG_LEVEL", "info"),
		LogFormat: getEnv("PULSE_LOG_FORMAT", "text"),

		DatabaseDriver: strings.ToLower(getEnv("PULSE_DB_DRIVER", "")),
		SQLitePath:     getEnv("PULSE_SQLITE_PATH", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxConns:     getIntEnv("PULSE_DB_MAX_CONNS", 0),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue: getEnv("PULSE_RABBITMQ_QUEUE", ""),

		CacheScoreTTL:   getDurationEnv("PULSE_CACHE_SCORE_TTL", 300*time.Second),
		CacheListingTTL: getDurationEnv("PULSE_CACHE_LISTING_TTL", 120*time.Second),
		CacheBreaker:    getBoolEnv("PULSE_CACHE_BREAKER", true),

		BaselineWindowDays:   getIntEnv("PULSE_BASELINE_WINDOW_DAYS", 30),
		BaselineMinSamples:   getIntEnv("PULSE_BASELINE_MIN_SAMPLES", 5),
		BaselineExcludeToday: getBoolEnv("PULSE_BASELINE_EXCLUDE_TODAY", true),

		ScoringProfile:   getEnv("PULSE_SCORING_PROFILE", ""),
		Timezone:         getEnv("PULSE_TIMEZONE", "UTC"),
		GoalHoursPerWeek: getFloatEnv("PULSE_GOAL_HOURS_PER_WEEK", 0),

		MCPAddr:      getEnv("PULSE_MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("PULSE_MCP_AUTH_TOKEN", ""),
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
		if cfg.DatabaseURL != "" {
			cfg.DatabaseDriver = "postgres"
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s") and bare seconds ("90").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
