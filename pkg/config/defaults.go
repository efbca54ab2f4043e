package config

import (
	"time"

	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/policy"
)

// Default values applied by ApplyDefaults.
const (
	// DefaultJournalPath is the default SQLite run journal location.
	DefaultJournalPath = "capsync.db"

	// DefaultWatchDebounce is the default file-event debounce interval.
	DefaultWatchDebounce = 2 * time.Second
)

// ApplyDefaults fills unset fields with default values.
//
// Policy knobs default to the platform's stock plan shape: 500 base
// credits, 1000 org cap, 500 buffer. A knob explicitly set to zero in
// the file is kept; only fields absent from the YAML (and therefore
// zero with no marker) get defaults, which for the policy section
// means zero values are indistinguishable from unset. Runs that need a
// genuinely zero buffer set it through the command line flag, which
// always wins.
func ApplyDefaults(cfg *Config) {
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = gateway.DefaultBaseURL
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = gateway.DefaultTimeout
	}
	if cfg.Gateway.MaxRetries == 0 {
		cfg.Gateway.MaxRetries = gateway.DefaultMaxRetries
	}

	if cfg.Policy.BaseCredits == 0 {
		cfg.Policy.BaseCredits = policy.DefaultBaseCredits
	}
	if cfg.Policy.OrgDefaultCap == 0 {
		cfg.Policy.OrgDefaultCap = policy.DefaultOrgCap
	}
	if cfg.Policy.Buffer == 0 {
		cfg.Policy.Buffer = policy.DefaultBuffer
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}

	if cfg.Watch.DebounceInterval == 0 {
		cfg.Watch.DebounceInterval = DefaultWatchDebounce
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
