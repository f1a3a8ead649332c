package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/stechy/chatrelay/providers/ai/gemini"
	"github.com/stechy/chatrelay/providers/observability/slogobs"
)

// DefaultAddr is the listen address when CHATRELAY_ADDR is unset.
const DefaultAddr = ":8080"

// DefaultEnvFile is read by Load when no files are given.
const DefaultEnvFile = ".env"

// Config is the full service configuration.
type Config struct {
	Addr string

	// DatabaseURL selects the PostgreSQL store. Empty means in-memory.
	DatabaseURL string

	Gemini GeminiConfig
	Log    LogConfig
}

// GeminiConfig configures the upstream provider.
type GeminiConfig struct {
	// APIKey may be empty; requests then fail with ai.ErrConfiguration
	// instead of the service refusing to start.
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

// LogConfig configures slogobs.
type LogConfig struct {
	Level  slog.Level
	Format slogobs.Format
	File   string
}

// Load reads files (DefaultEnvFile when none are given) and then the process
// environment. Missing files are skipped; for keys present in several files
// the first file wins.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	fileEnv := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		for key, value := range values {
			if _, ok := fileEnv[key]; !ok {
				fileEnv[key] = value
			}
		}
	}

	return FromEnv(func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return fileEnv[key]
	})
}

// FromEnv builds a Config from getenv, typically os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
		return fallback
	}

	timeout := gemini.DefaultTimeout
	if raw := get("CHATRELAY_UPSTREAM_TIMEOUT", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: CHATRELAY_UPSTREAM_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("config: CHATRELAY_UPSTREAM_TIMEOUT must be positive, got %s", parsed)
		}
		timeout = parsed
	}

	return &Config{
		Addr:        get("CHATRELAY_ADDR", DefaultAddr),
		DatabaseURL: get("DATABASE_URL", ""),
		Gemini: GeminiConfig{
			APIKey:     get("GEMINI_API_KEY", ""),
			BaseURL:    get("GEMINI_API_BASE_URL", gemini.DefaultBaseURL),
			Model:      get("GEMINI_MODEL", gemini.DefaultModel),
			ImageModel: get("GEMINI_IMAGE_MODEL", gemini.DefaultImageModel),
			Timeout:    timeout,
		},
		Log: LogConfig{
			Level:  slogobs.ParseLogLevel(get("CHATRELAY_LOG_LEVEL", get("LOG_LEVEL", "info"))),
			Format: slogobs.ParseFormat(get("CHATRELAY_LOG_FORMAT", get("LOG_FORMAT", ""))),
			File:   get("CHATRELAY_LOG_FILE", ""),
		},
	}, nil
}

// GeminiOptions turns the upstream section into provider options.
func (c GeminiConfig) GeminiOptions() []gemini.Option {
	return []gemini.Option{
		gemini.WithBaseURL(c.BaseURL),
		gemini.WithModel(c.Model),
		gemini.WithImageModel(c.ImageModel),
		gemini.WithTimeout(c.Timeout),
	}
}

// ObserverOptions turns the log section into slogobs options.
func (c LogConfig) ObserverOptions() []slogobs.Option {
	return []slogobs.Option{
		slogobs.WithLevel(c.Level),
		slogobs.WithFormat(c.Format),
		slogobs.WithFile(c.File),
	}
}
