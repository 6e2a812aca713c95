// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultDriver        = "sqlite3"
	defaultSQLiteURL     = "op_tournaments.db?_journal_mode=WAL&_txlock=immediate"
	defaultCacheTTL      = 30 * time.Second
	defaultNotifyTimeout = 5 * time.Second
)

type Archive struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether results should be archived at all.
func (a Archive) Enabled() bool { return a.Bucket != "" }

type Config struct {
	HTTPAddr           string
	DatabaseDriver     string
	DatabaseURL        string
	LogLevel           slog.Level
	CacheTTL           time.Duration
	NotifyTimeout      time.Duration
	CORSAllowedOrigins []string
	Archive            Archive
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", defaultHTTPAddr),
		DatabaseDriver: getenv("DATABASE_DRIVER", defaultDriver),
		Archive: Archive{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			Region:          os.Getenv("ARCHIVE_REGION"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		},
	}

	switch cfg.DatabaseDriver {
	case "sqlite3":
		cfg.DatabaseURL = getenv("DATABASE_URL", defaultSQLiteURL)
	case "postgres":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.CacheTTL, err = duration("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = duration("NOTIFY_TIMEOUT", defaultNotifyTimeout); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout <= 0 {
		return nil, fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", cfg.NotifyTimeout)
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
