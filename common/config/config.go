package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Site      SiteConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings.
// The password is the privileged store credential; when it is absent the
// service starts in degraded mode and write paths report "not configured"
// instead of crashing.
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SiteConfig holds public-site settings consumed when building absolute URLs
type SiteConfig struct {
	// Origin is the public base origin, e.g. "https://linket.to".
	// Tag URLs are Origin + "/l/" + token.
	Origin string
}

// AdminConfig holds the admin allowlist and the internal service secret
type AdminConfig struct {
	// UserIDs allowed to call /api/admin endpoints
	UserIDs []string
	// InternalSecret authenticates service-to-service calls
	// (account-deletion release, rate limit bypass)
	InternalSecret string
}

// RateLimitConfig holds sliding-window limits for abuse-prone endpoints
type RateLimitConfig struct {
	ClaimLimit     int64
	ClaimWindowSec int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "linket"),
			User:        getEnv("POSTGRES_USER", "linket"),
			Password:    getEnv("POSTGRES_PASSWORD", ""),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Site: SiteConfig{
			Origin: strings.TrimRight(getEnv("SITE_ORIGIN", "http://localhost:3000"), "/"),
		},
		Admin: AdminConfig{
			UserIDs:        getEnvCSV("ADMIN_USER_IDS"),
			InternalSecret: getEnv("INTERNAL_SERVICE_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			ClaimLimit:     int64(getEnvInt("CLAIM_RATE_LIMIT", 10)),
			ClaimWindowSec: getEnvInt("CLAIM_RATE_WINDOW_SEC", 60),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Site.Origin == "" {
		return fmt.Errorf("site origin is required")
	}

	return nil
}

// StoreConfigured reports whether the privileged database credential is set.
// Without it the service serves redirects to home and returns an explicit
// "not configured" error on write paths.
func (c *Config) StoreConfigured() bool {
	return c.Database.Password != ""
}

// IsAdmin reports whether a user id is on the admin allowlist
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.Admin.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvCSV(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
