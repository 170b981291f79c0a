// Package config loads application settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root application configuration.
type Config struct {
	App      AppConfig
	CORS     CORSConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Audit    AuditConfig
}

// AppConfig holds HTTP server and lifecycle settings.
type AppConfig struct {
	Name            string        `env:"APP_NAME" env-default:"Task API"`
	Port            int           `env:"APP_PORT" env-default:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	BodyLimit       int           `env:"BODY_LIMIT" env-default:"1048576"`
}

// Addr returns the listen address for the HTTP server.
func (a AppConfig) Addr() string {
	return fmt.Sprintf(":%d", a.Port)
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:3001,http://localhost:4200"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER" env-default:"sqlite"`
	Path         string `env:"DB_PATH" env-default:"tasks.db"`
	URL          string `env:"DATABASE_URL"`
	Host         string `env:"DB_HOST" env-default:"localhost"`
	Port         int    `env:"DB_PORT" env-default:"5432"`
	User         string `env:"DB_USERNAME" env-default:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Name         string `env:"DB_NAME" env-default:"tasks"`
	SSLMode      string `env:"DB_SSLMODE" env-default:"disable"`
	Debug        bool   `env:"DB_DEBUG" env-default:"false"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
}

// PostgresDSN returns DATABASE_URL when set, otherwise a URL built from the discrete settings.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig configures the optional task cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	Prefix   string        `env:"CACHE_PREFIX" env-default:"task:"`
	TTL      time.Duration `env:"CACHE_TTL" env-default:"5m"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// AuditConfig configures the in-memory activity log.
type AuditConfig struct {
	Capacity int `env:"AUDIT_CAPACITY" env-default:"100"`
}

// Load reads an optional .env file at path and then the process environment.
// A missing file is not an error; variables already set in the environment win.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.CORS.AllowedOrigins = normalizeOrigins(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cleanenv cannot express with tags.
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d: must be between 1 and 65535", c.App.Port)
	}
	if c.App.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return errors.New("DATABASE_URL or DB_HOST is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: use %q or %q", c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must list at least one origin")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			return errors.New("ALLOWED_ORIGINS cannot contain \"*\" because credentials are allowed")
		}
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive when REDIS_ADDR is set")
	}
	if c.Audit.Capacity < 1 {
		return errors.New("AUDIT_CAPACITY must be at least 1")
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
