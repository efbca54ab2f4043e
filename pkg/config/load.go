package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// CAPSYNC_* environment overrides, and validates the result.
//
// An empty path skips the file entirely and builds the configuration
// from defaults and environment alone, which is the common case for
// one-off CLI runs.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies CAPSYNC_* environment variables on top of
// the file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CAPSYNC_SERVICE_KEY"); val != "" {
		cfg.Gateway.ServiceKey = val
	}
	if val := os.Getenv("CAPSYNC_GATEWAY_BASE_URL"); val != "" {
		cfg.Gateway.BaseURL = val
	}
	if val := os.Getenv("CAPSYNC_GATEWAY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.Timeout = d
		}
	}
	if val := os.Getenv("CAPSYNC_GATEWAY_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Gateway.MaxRetries = i
		}
	}

	if val := os.Getenv("CAPSYNC_POLICY_BASE_CREDITS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Policy.BaseCredits = i
		}
	}
	if val := os.Getenv("CAPSYNC_POLICY_ORG_DEFAULT_CAP"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Policy.OrgDefaultCap = i
		}
	}
	if val := os.Getenv("CAPSYNC_POLICY_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Policy.Buffer = i
		}
	}

	if val := os.Getenv("CAPSYNC_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
	if val := os.Getenv("CAPSYNC_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = &b
		}
	}

	if val := os.Getenv("CAPSYNC_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CAPSYNC_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}
