package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
	"windreef/capsync/pkg/config"
	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/journal"
)

var (
	// Global flags
	cfgFile      string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "capsync",
	Short: "capsync - add-on credit cap reconciliation",
	Long: `Capsync manages add-on credit caps for a developer-tooling platform.

It computes the cap each user should have from their usage (org default
for users within it, usage plus a buffer for users beyond it), compares
those targets with what the platform currently has configured, and
applies only the changes that are needed. Re-running a completed sync
is always safe: it produces no writes.

The service key is read from the CAPSYNC_SERVICE_KEY environment
variable or the configuration file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
}

// loadConfig loads configuration, applies the global flag overrides and
// initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	return cfg, nil
}

// newGateway builds the HTTP gateway client from configuration.
func newGateway(cfg *config.Config) (*gateway.Client, error) {
	if cfg.Gateway.ServiceKey == "" {
		return nil, cli.NewConfigError("gateway.service_key",
			"service key not set; export CAPSYNC_SERVICE_KEY or add it to the config file")
	}

	client, err := gateway.NewClient(gateway.ClientConfig{
		BaseURL:    cfg.Gateway.BaseURL,
		ServiceKey: cfg.Gateway.ServiceKey,
		Timeout:    cfg.Gateway.Timeout,
		MaxRetries: cfg.Gateway.MaxRetries,
	})
	if err != nil {
		return nil, cli.NewConfigError("gateway", err.Error())
	}
	return client, nil
}

// openJournal opens the run journal, or returns nil when journaling is
// disabled.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.JournalEnabled() {
		return nil, nil
	}
	jrnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}
	return jrnl, nil
}

// formatter returns the output formatter selected by --output.
func formatter() cli.Formatter {
	return cli.NewFormatter(cli.OutputFormat(outputFormat))
}
