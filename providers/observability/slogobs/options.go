package slogobs

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for WithFile.
const (
	maxLogSizeMB  = 20
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	logger *slog.Logger

	// closer is set when the observer owns its output (WithFile).
	closer io.Closer
}

// WithFormat sets the log output format.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the writer logs go to.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
		c.closer = nil
	}
}

// WithFile writes logs to path, rotating it once it reaches 20 MB and keeping
// five compressed backups for at most two weeks. An empty path is ignored.
// Observer.Close releases the file.
func WithFile(path string) Option {
	return func(c *config) {
		if path == "" {
			return
		}
		writer := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		}
		c.output = writer
		c.closer = writer
	}
}

// WithColors enables or disables ANSI colors for compact and pretty output.
func WithColors(enabled bool) Option {
	return func(c *config) {
		c.colors = enabled
	}
}

// WithLogger uses logger as is, bypassing format, level, output and colors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func defaultConfig() *config {
	return &config{
		format: FormatFromEnv(),
		level:  LevelFromEnv(),
		output: os.Stdout,
	}
}

func applyOptions(opts ...Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
