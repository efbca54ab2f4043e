package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/policy"
)

// clearEnv unsets every CAPSYNC_* variable the loader reads so tests
// see only what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CAPSYNC_SERVICE_KEY",
		"CAPSYNC_GATEWAY_BASE_URL",
		"CAPSYNC_GATEWAY_TIMEOUT",
		"CAPSYNC_GATEWAY_MAX_RETRIES",
		"CAPSYNC_POLICY_BASE_CREDITS",
		"CAPSYNC_POLICY_ORG_DEFAULT_CAP",
		"CAPSYNC_POLICY_BUFFER",
		"CAPSYNC_JOURNAL_PATH",
		"CAPSYNC_JOURNAL_ENABLED",
		"CAPSYNC_LOG_LEVEL",
		"CAPSYNC_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Gateway.BaseURL != gateway.DefaultBaseURL {
		t.Errorf("Expected default base URL, got %s", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout != gateway.DefaultTimeout {
		t.Errorf("Expected default timeout, got %s", cfg.Gateway.Timeout)
	}
	if cfg.Policy.BaseCredits != policy.DefaultBaseCredits {
		t.Errorf("Expected default base credits, got %d", cfg.Policy.BaseCredits)
	}
	if cfg.Policy.OrgDefaultCap != policy.DefaultOrgCap {
		t.Errorf("Expected default org cap, got %d", cfg.Policy.OrgDefaultCap)
	}
	if cfg.Policy.Buffer != policy.DefaultBuffer {
		t.Errorf("Expected default buffer, got %d", cfg.Policy.Buffer)
	}
	if cfg.Journal.Path != DefaultJournalPath {
		t.Errorf("Expected default journal path, got %s", cfg.Journal.Path)
	}
	if !cfg.JournalEnabled() {
		t.Error("Expected journaling enabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "capsync.yaml")
	content := `
gateway:
  base_url: https://platform.internal.example.com
  timeout: 10s
  max_retries: 4
policy:
  base_credits: 250
  org_default_cap: 750
  buffer: 100
sync:
  threshold: 600
  skip_invalid: true
journal:
  enabled: false
  path: /var/lib/capsync/runs.db
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Gateway.BaseURL != "https://platform.internal.example.com" {
		t.Errorf("Unexpected base URL: %s", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeout: %s", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.MaxRetries != 4 {
		t.Errorf("Unexpected max retries: %d", cfg.Gateway.MaxRetries)
	}
	if cfg.Policy.BaseCredits != 250 || cfg.Policy.OrgDefaultCap != 750 || cfg.Policy.Buffer != 100 {
		t.Errorf("Unexpected policy: %+v", cfg.Policy)
	}
	if cfg.Sync.Threshold != 600 || !cfg.Sync.SkipInvalid {
		t.Errorf("Unexpected sync settings: %+v", cfg.Sync)
	}
	if cfg.JournalEnabled() {
		t.Error("Expected journaling disabled")
	}
	if cfg.Journal.Path != "/var/lib/capsync/runs.db" {
		t.Errorf("Unexpected journal path: %s", cfg.Journal.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "capsync.yaml")
	content := `
gateway:
  base_url: https://from-file.example.com
policy:
  base_credits: 250
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("CAPSYNC_SERVICE_KEY", "env-key")
	t.Setenv("CAPSYNC_GATEWAY_BASE_URL", "https://from-env.example.com")
	t.Setenv("CAPSYNC_POLICY_BASE_CREDITS", "333")
	t.Setenv("CAPSYNC_JOURNAL_ENABLED", "false")
	t.Setenv("CAPSYNC_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Gateway.ServiceKey != "env-key" {
		t.Errorf("Expected env service key, got %q", cfg.Gateway.ServiceKey)
	}
	// Environment wins over the file.
	if cfg.Gateway.BaseURL != "https://from-env.example.com" {
		t.Errorf("Expected env base URL, got %s", cfg.Gateway.BaseURL)
	}
	if cfg.Policy.BaseCredits != 333 {
		t.Errorf("Expected env base credits, got %d", cfg.Policy.BaseCredits)
	}
	if cfg.JournalEnabled() {
		t.Error("Expected journaling disabled via env")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env log level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative buffer", "policy:\n  buffer: -10\n"},
		{"negative threshold", "sync:\n  threshold: -1\n"},
		{"bad cron schedule", "watch:\n  schedule: not-cron\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			path := filepath.Join(t.TempDir(), "capsync.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			if _, err := Load(path); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoad_ValidSchedule(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "capsync.yaml")
	content := "watch:\n  dir: /exports\n  schedule: \"0 * * * *\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Watch.Schedule != "0 * * * *" {
		t.Errorf("Unexpected schedule: %s", cfg.Watch.Schedule)
	}
	if cfg.Watch.DebounceInterval != DefaultWatchDebounce {
		t.Errorf("Expected default debounce, got %s", cfg.Watch.DebounceInterval)
	}
}
