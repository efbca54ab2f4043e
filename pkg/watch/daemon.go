package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// RunFunc executes one reconciliation run for a usage export.
type RunFunc func(ctx context.Context, csvPath string) error

// Config contains configuration for the watch daemon.
type Config struct {
	// Dir is the drop directory watched for usage CSV exports.
	Dir string

	// Schedule is an optional cron expression for periodic re-runs of
	// the most recent export. Empty disables scheduled runs.
	Schedule string

	// DebounceInterval is how long a file must stay quiet before its
	// run triggers. Default: 2s.
	DebounceInterval time.Duration
}

// Daemon watches a drop directory and drives reconciliation runs.
type Daemon struct {
	config   Config
	run      RunFunc
	watcher  *fsnotify.Watcher
	cron     *cron.Cron
	debounce *Debouncer
	logger   *slog.Logger

	mu         sync.Mutex
	lastExport string
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewDaemon creates a watch daemon for the given drop directory.
func NewDaemon(config Config, run RunFunc) (*Daemon, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 2 * time.Second
	}

	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %q is not a directory", config.Dir)
	}

	if config.Schedule != "" {
		if _, err := cron.ParseStandard(config.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", config.Schedule, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Daemon{
		config:   config,
		run:      run,
		watcher:  watcher,
		cron:     cron.New(),
		debounce: NewDebouncer(config.DebounceInterval),
		logger:   slog.Default().With("component", "watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run starts the daemon and blocks until the context is cancelled or
// Stop is called.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		close(d.doneCh)
	}()

	// Seed the "most recent export" from what is already in the
	// directory, so a scheduled run has something to re-run even
	// before the first file event.
	if latest := d.latestExport(); latest != "" {
		d.setLastExport(latest)
	}

	if err := d.watcher.Add(d.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", d.config.Dir, err)
	}

	if d.config.Schedule != "" {
		_, err := d.cron.AddFunc(d.config.Schedule, func() {
			d.runScheduled(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule runs: %w", err)
		}
		d.cron.Start()
		defer d.cron.Stop()
	}

	d.logger.Info("watch daemon started",
		"dir", d.config.Dir,
		"schedule", d.config.Schedule,
		"debounce", d.config.DebounceInterval,
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("watch daemon stopped (context cancelled)")
			return nil

		case <-d.stopCh:
			d.logger.Info("watch daemon stopped")
			return nil

		case event, ok := <-d.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !d.shouldProcess(event) {
				continue
			}

			path := event.Name
			d.logger.Debug("export event detected",
				"path", path,
				"op", event.Op.String(),
			)

			d.debounce.Trigger(func() {
				d.setLastExport(path)
				d.runExport(ctx, path, "event")
			})

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite errors.
			d.logger.Error("watcher error", "error", err)
		}
	}
}

// Stop stops the daemon and waits for the event loop to exit.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	close(d.stopCh)
	<-d.doneCh

	d.debounce.Stop()
	return d.watcher.Close()
}

// runScheduled re-runs the most recent export, if any.
func (d *Daemon) runScheduled(ctx context.Context) {
	d.mu.Lock()
	path := d.lastExport
	d.mu.Unlock()

	if path == "" {
		d.logger.Info("scheduled run skipped, no export seen yet")
		return
	}
	d.runExport(ctx, path, "schedule")
}

// runExport executes one run and logs its outcome.
func (d *Daemon) runExport(ctx context.Context, path, trigger string) {
	d.logger.Info("starting reconciliation run",
		"path", path,
		"trigger", trigger,
	)

	if err := d.run(ctx, path); err != nil {
		d.logger.Error("reconciliation run failed",
			"path", path,
			"trigger", trigger,
			"error", err,
		)
		return
	}

	d.logger.Info("reconciliation run completed", "path", path)
}

// shouldProcess filters events down to created or rewritten CSV files.
func (d *Daemon) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}

// latestExport returns the most recently modified CSV in the drop
// directory, or "" when there is none.
func (d *Daemon) latestExport() string {
	entries, err := os.ReadDir(d.config.Dir)
	if err != nil {
		return ""
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(d.config.Dir, name)
			latestMod = info.ModTime()
		}
	}
	return latest
}

func (d *Daemon) setLastExport(path string) {
	d.mu.Lock()
	d.lastExport = path
	d.mu.Unlock()
}
