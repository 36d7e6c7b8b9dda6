package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by the *_BACKEND settings
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// CollegeFootballData API
	CFBDAPIKey   string        `envconfig:"CFBD_API_KEY" required:"true"`
	CFBDBaseURL  string        `envconfig:"CFBD_BASE_URL" default:"https://api.collegefootballdata.com"`
	CFBDTimeout  time.Duration `envconfig:"CFBD_TIMEOUT" default:"30s"`
	CFBDMinDelay time.Duration `envconfig:"CFBD_MIN_DELAY" default:"1s"`

	// Storage backends
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"file"`
	LedgerBackend string `envconfig:"LEDGER_BACKEND" default:"file"`
	QueueBackend  string `envconfig:"QUEUE_BACKEND" default:"file"`

	// File backend paths
	CacheDir   string `envconfig:"CACHE_DIR" default:"data/cache"`
	LedgerPath string `envconfig:"LEDGER_PATH" default:"data/posted.json"`
	QueuePath  string `envconfig:"QUEUE_PATH" default:"data/queue.jsonl"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"cfbfeed"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"cfbfeed"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisQueueKey string `envconfig:"REDIS_QUEUE_KEY" default:"cfbfeed:drafts"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Feed
	Season         int    `envconfig:"FEED_SEASON" default:"0"`
	Poll           string `envconfig:"FEED_POLL" default:"AP Top 25"`
	Probe          string `envconfig:"FEED_PROBE" default:"rankings"`
	MoverThreshold int    `envconfig:"FEED_MOVER_THRESHOLD" default:"3"`
	GameLimit      int    `envconfig:"FEED_GAME_LIMIT" default:"3"`

	// Scheduler
	FeedCron string `envconfig:"FEED_CRON" default:"0 */6 * * *"`

	// Monitoring
	EnableMetrics  bool   `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort    int    `envconfig:"METRICS_PORT" default:"9090"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:""`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CFBDAPIKey == "" {
		return fmt.Errorf("CFBD_API_KEY is required")
	}

	switch c.CacheBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendFile, BackendRedis, c.CacheBackend)
	}

	switch c.LedgerBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabasePassword == "" {
			return fmt.Errorf("DATABASE_PASSWORD is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.LedgerBackend)
	}

	switch c.QueueBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("QUEUE_BACKEND must be %q or %q, got %q", BackendFile, BackendRedis, c.QueueBackend)
	}

	switch c.Probe {
	case "rankings", "lines":
	default:
		return fmt.Errorf("FEED_PROBE must be rankings or lines, got %q", c.Probe)
	}

	if c.MoverThreshold < 1 {
		return fmt.Errorf("FEED_MOVER_THRESHOLD must be positive")
	}
	if c.GameLimit < 1 {
		return fmt.Errorf("FEED_GAME_LIMIT must be positive")
	}

	return nil
}

// SeasonFor returns the configured season, or the season in progress at now.
// Seasons start in August, so January through July belong to the previous year.
func (c *Config) SeasonFor(now time.Time) int {
	if c.Season > 0 {
		return c.Season
	}
	if now.Month() < time.August {
		return now.Year() - 1
	}
	return now.Year()
}

// DatabasePortString returns the database port for connection strings
func (c *Config) DatabasePortString() string {
	return strconv.Itoa(c.DatabasePort)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.CacheBackend == BackendRedis || c.QueueBackend == BackendRedis
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
