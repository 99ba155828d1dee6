package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Feed     FeedConfig
	Events   EventsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// FeedConfig holds feed composition configuration
type FeedConfig struct {
	PageSize             int
	ScopeLinearThreshold int
	ScopeLatencyBudget   time.Duration
	SessionIdleTTL       time.Duration
}

// EventsConfig holds event publishing configuration. An empty NATSURL
// disables publishing.
type EventsConfig struct {
	NATSURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	// Define flags with defaults
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Cache TTL for feed results")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "trackline", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")
	pageSize := flag.Int("feed-page-size", 20, "Feed page size")
	scopeThreshold := flag.Int("feed-scope-threshold", 500, "Result count above which scope filtering pre-groups by creator")
	scopeBudget := flag.Duration("feed-scope-budget", 100*time.Millisecond, "Latency budget for scope filtering before a warning is logged")
	sessionIdleTTL := flag.Duration("feed-session-ttl", 30*time.Minute, "Idle TTL before a feed session is reaped")
	natsURL := flag.String("nats-url", "", "NATS server URL (empty disables event publishing)")

	flag.Parse()

	// Apply environment variable overrides
	applyEnvOverrides(httpAddr, cacheTTL, cacheBackend, redisAddr, logLevel,
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode,
		pageSize, scopeThreshold, scopeBudget, sessionIdleTTL, natsURL)

	cfg.Server = ServerConfig{
		HTTPAddr: *httpAddr,
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Database = DatabaseConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}

	cfg.Feed = FeedConfig{
		PageSize:             *pageSize,
		ScopeLinearThreshold: *scopeThreshold,
		ScopeLatencyBudget:   *scopeBudget,
		SessionIdleTTL:       *sessionIdleTTL,
	}

	cfg.Events = EventsConfig{
		NATSURL: *natsURL,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	return cfg
}

func applyEnvOverrides(
	httpAddr *string,
	cacheTTL *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	logLevel *string,
	dbHost *string,
	dbPort *int,
	dbUser *string,
	dbPassword *string,
	dbName *string,
	dbSSLMode *string,
	pageSize *int,
	scopeThreshold *int,
	scopeBudget *time.Duration,
	sessionIdleTTL *time.Duration,
	natsURL *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
	if v := os.Getenv("FEED_PAGE_SIZE"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			*pageSize = p
		}
	}
	if v := os.Getenv("FEED_SCOPE_THRESHOLD"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			*scopeThreshold = p
		}
	}
	if v := os.Getenv("FEED_SCOPE_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*scopeBudget = d
		}
	}
	if v := os.Getenv("FEED_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*sessionIdleTTL = d
		}
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		*natsURL = v
	}
}
