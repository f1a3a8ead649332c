package slogobs

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"  error  ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ParseLogLevel(tt.input); result != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("CHATRELAY_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	if level := LevelFromEnv(); level != slog.LevelInfo {
		t.Errorf("Expected INFO default, got %v", level)
	}

	t.Setenv("LOG_LEVEL", "warn")
	if level := LevelFromEnv(); level != slog.LevelWarn {
		t.Errorf("Expected LOG_LEVEL fallback WARN, got %v", level)
	}

	t.Setenv("CHATRELAY_LOG_LEVEL", "debug")
	if level := LevelFromEnv(); level != slog.LevelDebug {
		t.Errorf("Expected CHATRELAY_LOG_LEVEL DEBUG to win, got %v", level)
	}
}

func TestLogLevelString(t *testing.T) {
	tests := map[slog.Level]string{
		LevelTrace:          "TRACE",
		slog.LevelDebug:     "DEBUG",
		slog.LevelInfo:      "INFO",
		slog.LevelWarn:      "WARN",
		slog.LevelError:     "ERROR",
		slog.LevelError + 2: "ERROR+2",
	}
	for level, expected := range tests {
		if got := LogLevelString(level); got != expected {
			t.Errorf("LogLevelString(%d) = %q, want %q", level, got, expected)
		}
	}
}
