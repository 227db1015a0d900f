package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database. An empty DatabaseURL selects local mode on SQLite.
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	MongoDatabase  string

	// Redis directory cache. Disabled when RedisURL is empty.
	RedisURL          string
	DirectoryCacheTTL time.Duration

	// RabbitMQ. Events stay in process when RabbitMQURL is empty.
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// HTTP API
	HTTPAddr  string
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Worker
	WorkerHealthAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string
	MCPUserID    string

	// Email
	EmailProvider       string
	EmailFromName       string
	EmailFromAddress    string
	GmailClientID       string
	GmailClientSecret   string
	GmailRefreshToken   string
	EmailBreakerFailure int
	EmailBreakerTimeout time.Duration

	// Metrics
	MetricsNamespace string
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "auto"),
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		DirectoryCacheTTL: getDurationEnv("DIRECTORY_CACHE_TTL", 5*time.Minute),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		HTTPAddr:  getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "mentora"),
		JWTTTL:    getDurationEnv("JWT_TTL", 24*time.Hour),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
		MCPUserID:    getEnv("MCP_USER_ID", ""),

		EmailProvider:       strings.ToLower(getEnv("EMAIL_PROVIDER", "log")),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "SIP Portal"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", "no-reply@localhost"),
		GmailClientID:       getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret:   getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken:   getEnv("GMAIL_REFRESH_TOKEN", ""),
		EmailBreakerFailure: getIntEnv("EMAIL_BREAKER_FAILURES", 5),
		EmailBreakerTimeout: getDurationEnv("EMAIL_BREAKER_TIMEOUT", 30*time.Second),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "mentora"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	switch c.EmailProvider {
	case "log":
	case "gmail":
		if c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "" {
			errs = append(errs, errors.New("gmail provider needs GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// IsLocalMode reports whether no external database is configured.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseURL == ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// OutboxRetention returns the retention window for published messages.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
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

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
