package slogobs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug and is used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

// LevelFromEnv reads CHATRELAY_LOG_LEVEL, then LOG_LEVEL. Default: INFO.
func LevelFromEnv() slog.Level {
	level := os.Getenv("CHATRELAY_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}
	return ParseLogLevel(level)
}

// ParseLogLevel parses TRACE, DEBUG, INFO, WARN, WARNING or ERROR
// (case-insensitive). Unknown values yield INFO.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogLevelString returns the name Handler prints for level.
func LogLevelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	case level == slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("ERROR+%d", level-slog.LevelError)
	}
}
