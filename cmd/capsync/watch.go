package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
	"windreef/capsync/pkg/reconcile"
	"windreef/capsync/pkg/runner"
	"windreef/capsync/pkg/watch"
)

var watchFlags struct {
	dir      string
	schedule string
	metrics  string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run continuously from a usage export drop directory",
	Long: `Watch a directory for usage CSV exports and reconcile each new or
rewritten export automatically.

With --schedule, the most recent export is additionally re-reconciled
on a cron schedule, which converges caps after partial failures without
operator involvement. With --metrics, a Prometheus endpoint exposes
run and operation counters.

Examples:
  capsync watch --dir /srv/usage-exports
  capsync watch --dir /srv/usage-exports --schedule "0 3 * * *" --metrics :9184`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchFlags.dir, "dir", "", "drop directory to watch")
	watchCmd.Flags().StringVar(&watchFlags.schedule, "schedule", "", "cron expression for periodic re-runs")
	watchCmd.Flags().StringVar(&watchFlags.metrics, "metrics", "", "listen address for the Prometheus endpoint")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if watchFlags.dir != "" {
		cfg.Watch.Dir = watchFlags.dir
	}
	if watchFlags.schedule != "" {
		cfg.Watch.Schedule = watchFlags.schedule
	}
	if watchFlags.metrics != "" {
		cfg.Watch.MetricsAddress = watchFlags.metrics
	}
	if cfg.Watch.Dir == "" {
		return cli.NewConfigError("watch.dir", "drop directory not set; pass --dir or set watch.dir")
	}

	service, err := newGateway(cfg)
	if err != nil {
		return err
	}
	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if jrnl != nil {
		defer jrnl.Close()
	}

	metrics := reconcile.NewMetrics()
	r := runner.New(service, jrnl, metrics)

	ctx := cli.SetupSignalHandler()

	if cfg.Watch.MetricsAddress != "" {
		server := &http.Server{
			Addr:              cfg.Watch.MetricsAddress,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			_ = server.ListenAndServe()
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	daemon, err := watch.NewDaemon(watch.Config{
		Dir:              cfg.Watch.Dir,
		Schedule:         cfg.Watch.Schedule,
		DebounceInterval: cfg.Watch.DebounceInterval,
	}, func(ctx context.Context, csvPath string) error {
		_, err := r.SyncCSV(ctx, csvPath, runner.Options{
			Policy:      cfg.Policy,
			Threshold:   cfg.Sync.Threshold,
			SkipInvalid: cfg.Sync.SkipInvalid,
		})
		return err
	})
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	return daemon.Run(ctx)
}
