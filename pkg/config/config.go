package config

import (
	"time"

	"windreef/capsync/pkg/policy"
)

// Config is the root configuration structure for capsync.
type Config struct {
	// Gateway configures the connection to the remote platform.
	Gateway GatewayConfig `yaml:"gateway"`

	// Policy contains the cap computation knobs.
	Policy policy.Config `yaml:"policy"`

	// Sync configures bulk CSV reconciliation runs.
	Sync SyncConfig `yaml:"sync"`

	// Journal configures the local run journal.
	Journal JournalConfig `yaml:"journal"`

	// Watch configures the watch daemon.
	Watch WatchConfig `yaml:"watch"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures the HTTP gateway to the platform.
type GatewayConfig struct {
	// BaseURL is the platform API base URL.
	// Default: https://server.codeium.com
	BaseURL string `yaml:"base_url"`

	// ServiceKey authenticates API requests. Usually supplied via the
	// CAPSYNC_SERVICE_KEY environment variable rather than the file.
	ServiceKey string `yaml:"service_key"`

	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is how many times transient failures are retried.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// SyncConfig configures bulk reconciliation runs.
type SyncConfig struct {
	// Threshold skips rows whose credits_used is at or below this
	// value, leaving those users on the org default untouched.
	// Default: 0 (process every row)
	Threshold int `yaml:"threshold"`

	// SkipInvalid drops malformed CSV rows instead of rejecting the
	// whole batch. Duplicate emails always reject the batch.
	// Default: false
	SkipInvalid bool `yaml:"skip_invalid"`
}

// JournalConfig configures the local run journal.
type JournalConfig struct {
	// Enabled turns run journaling on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the SQLite database file for the journal.
	// Default: capsync.db
	Path string `yaml:"path"`
}

// WatchConfig configures the watch daemon.
type WatchConfig struct {
	// Dir is the directory watched for new usage CSV exports.
	Dir string `yaml:"dir"`

	// Schedule is a cron expression for periodic re-reconciliation of
	// the most recent export. Empty disables scheduled runs.
	Schedule string `yaml:"schedule"`

	// DebounceInterval is how long to wait after a file event before
	// triggering a run, to let slow exports finish writing.
	// Default: 2s
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// MetricsAddress is the listen address for the Prometheus metrics
	// endpoint. Empty disables the endpoint.
	MetricsAddress string `yaml:"metrics_address"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: text
	Format string `yaml:"format"`
}

// JournalEnabled reports whether journaling is on, applying the default.
func (c *Config) JournalEnabled() bool {
	if c.Journal.Enabled == nil {
		return true
	}
	return *c.Journal.Enabled
}
