// Package config handles application configuration loading. Values come
// from an optional config/threadline.yaml file, environment variables
// override the file, and defaults fill in the rest.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Driver names for STORE_DRIVER and CACHE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverValkey   = "valkey"
	DriverMemory   = "memory"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// Storage backends
	StoreDriver string // "postgres" or "memory"
	CacheDriver string // "valkey" or "memory"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache and pub/sub)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// Engine tuning
	EventsChannelPrefix string
	ExcerptLen          int
	SlugMaxAttempts     int
	ViewTTL             time.Duration
	TaskTimeout         time.Duration

	// Write budget per user or client IP
	RateLimit  int
	RateWindow time.Duration
}

var defaults = map[string]any{
	"APP_HOST":              "0.0.0.0",
	"APP_PORT":              "8080",
	"APP_ENV":               "development",
	"LOG_LEVEL":             "info",
	"STORE_DRIVER":          DriverPostgres,
	"CACHE_DRIVER":          DriverValkey,
	"POSTGRES_HOST":         "localhost",
	"POSTGRES_PORT":         "5432",
	"POSTGRES_USER":         "threadline",
	"POSTGRES_PASSWORD":     "changeme",
	"POSTGRES_DB":           "threadline",
	"VALKEY_HOST":           "localhost",
	"VALKEY_PORT":           "6379",
	"VALKEY_PASSWORD":       "",
	"VALKEY_DB":             0,
	"EVENTS_CHANNEL_PREFIX": "threadline:events:",
	"EXCERPT_LEN":           30,
	"SLUG_MAX_ATTEMPTS":     20,
	"VIEW_TTL":              24 * time.Hour,
	"TASK_TIMEOUT":          10 * time.Second,
	"RATE_LIMIT":            30,
	"RATE_WINDOW":           time.Minute,
}

// Load reads configuration from ./config/threadline.yaml (if present) and
// the environment.
func Load() (*Config, error) {
	return LoadFrom("config")
}

// LoadFrom is Load with an explicit directory for the config file. Returns
// an error if values are invalid or critical values are missing in
// production mode.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("threadline")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("config file loaded", "path", v.ConfigFileUsed())
	}

	cfg := &Config{
		Host:     v.GetString("APP_HOST"),
		Port:     v.GetString("APP_PORT"),
		Env:      v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		CacheDriver: strings.ToLower(v.GetString("CACHE_DRIVER")),

		DBHost:     v.GetString("POSTGRES_HOST"),
		DBPort:     v.GetString("POSTGRES_PORT"),
		DBUser:     v.GetString("POSTGRES_USER"),
		DBPassword: v.GetString("POSTGRES_PASSWORD"),
		DBName:     v.GetString("POSTGRES_DB"),

		ValkeyHost:     v.GetString("VALKEY_HOST"),
		ValkeyPort:     v.GetString("VALKEY_PORT"),
		ValkeyPassword: v.GetString("VALKEY_PASSWORD"),
		ValkeyDB:       v.GetInt("VALKEY_DB"),

		EventsChannelPrefix: v.GetString("EVENTS_CHANNEL_PREFIX"),
		ExcerptLen:          v.GetInt("EXCERPT_LEN"),
		SlugMaxAttempts:     v.GetInt("SLUG_MAX_ATTEMPTS"),
		ViewTTL:             v.GetDuration("VIEW_TTL"),
		TaskTimeout:         v.GetDuration("TASK_TIMEOUT"),

		RateLimit:  v.GetInt("RATE_LIMIT"),
		RateWindow: v.GetDuration("RATE_WINDOW"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StoreDriver != DriverPostgres && c.StoreDriver != DriverMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if c.CacheDriver != DriverValkey && c.CacheDriver != DriverMemory {
		return fmt.Errorf("CACHE_DRIVER must be %q or %q, got %q", DriverValkey, DriverMemory, c.CacheDriver)
	}
	if c.ExcerptLen < 1 {
		return fmt.Errorf("EXCERPT_LEN must be positive")
	}
	if c.SlugMaxAttempts < 1 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be positive")
	}
	if c.ViewTTL <= 0 || c.TaskTimeout <= 0 {
		return fmt.Errorf("VIEW_TTL and TASK_TIMEOUT must be positive durations")
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_WINDOW must be positive")
	}

	if c.Env == "production" && c.StoreDriver == DriverPostgres {
		if c.DBPassword == "changeme" {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
