package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stechy/chatrelay/providers/ai/gemini"
	"github.com/stechy/chatrelay/providers/observability/slogobs"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != DefaultAddr || cfg.DatabaseURL != "" {
		t.Errorf("unexpected server defaults %+v", cfg)
	}
	if cfg.Gemini.APIKey != "" || cfg.Gemini.BaseURL != gemini.DefaultBaseURL ||
		cfg.Gemini.Model != gemini.DefaultModel || cfg.Gemini.ImageModel != gemini.DefaultImageModel ||
		cfg.Gemini.Timeout != gemini.DefaultTimeout {
		t.Errorf("unexpected gemini defaults %+v", cfg.Gemini)
	}
	if cfg.Log.Level != slog.LevelInfo || cfg.Log.Format != slogobs.FormatCompact || cfg.Log.File != "" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"CHATRELAY_ADDR":             "127.0.0.1:9000",
		"DATABASE_URL":               "postgres://localhost/chat",
		"GEMINI_API_KEY":             " key ",
		"GEMINI_API_BASE_URL":        "http://proxy/v1beta",
		"GEMINI_MODEL":               "gemini-pro",
		"GEMINI_IMAGE_MODEL":         "gemini-image",
		"CHATRELAY_UPSTREAM_TIMEOUT": "15s",
		"LOG_LEVEL":                  "error",
		"CHATRELAY_LOG_LEVEL":        "debug",
		"LOG_FORMAT":                 "json",
		"CHATRELAY_LOG_FILE":         "/tmp/chatrelay.log",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" || cfg.DatabaseURL != "postgres://localhost/chat" {
		t.Errorf("unexpected server config %+v", cfg)
	}
	if cfg.Gemini.APIKey != "key" {
		t.Errorf("expected trimmed key, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.BaseURL != "http://proxy/v1beta" || cfg.Gemini.Model != "gemini-pro" || cfg.Gemini.ImageModel != "gemini-image" {
		t.Errorf("unexpected gemini config %+v", cfg.Gemini)
	}
	if cfg.Gemini.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.Gemini.Timeout)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("expected CHATRELAY_LOG_LEVEL to win, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != slogobs.FormatJSON || cfg.Log.File != "/tmp/chatrelay.log" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestFromEnv_InvalidTimeout(t *testing.T) {
	for _, raw := range []string{"soon", "0s", "-1s"} {
		if _, err := FromEnv(envMap(map[string]string{"CHATRELAY_UPSTREAM_TIMEOUT": raw})); err == nil {
			t.Errorf("expected error for timeout %q", raw)
		}
	}
}

// TestLoad_FileAndEnvironment verifies that .env values fill the gaps and the
// process environment wins.
func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "GEMINI_API_KEY=from-file\nGEMINI_MODEL=file-model\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("GEMINI_MODEL", "env-model")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "from-file" {
		t.Errorf("expected key from file, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "env-model" {
		t.Errorf("expected environment to win, got %q", cfg.Gemini.Model)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing file to be skipped, got %v", err)
	}
}
