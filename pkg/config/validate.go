package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for values that cannot work.
// It does not require a service key: commands that never touch the
// network (dry runs, history) are valid without one, and commands that
// do reach the network check for the key themselves.
func Validate(cfg *Config) error {
	if _, err := url.Parse(cfg.Gateway.BaseURL); err != nil {
		return fmt.Errorf("gateway.base_url %q is not a valid URL: %w", cfg.Gateway.BaseURL, err)
	}
	if cfg.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	if cfg.Gateway.MaxRetries < 0 {
		return fmt.Errorf("gateway.max_retries must not be negative")
	}

	if err := cfg.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	if cfg.Sync.Threshold < 0 {
		return fmt.Errorf("sync.threshold must not be negative")
	}

	if cfg.Watch.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
			return fmt.Errorf("watch.schedule %q is not a valid cron expression: %w", cfg.Watch.Schedule, err)
		}
	}
	if cfg.Watch.DebounceInterval < 0 {
		return fmt.Errorf("watch.debounce_interval must not be negative")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q must be json or text", cfg.Logging.Format)
	}

	return nil
}
