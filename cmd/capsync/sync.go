package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
	"windreef/capsync/pkg/reconcile"
	"windreef/capsync/pkg/runner"
)

var syncFlags struct {
	csvPath     string
	dryRun      bool
	threshold   int
	baseCredits int
	orgCap      int
	buffer      int
	skipInvalid bool
	noJournal   bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile caps from a usage CSV export",
	Long: `Reconcile per-user add-on credit caps from a usage CSV export.

The export needs 'email' and 'credits_used' columns (a 'name' column is
optional). For every row the target cap is computed as:

  addon_used = max(0, credits_used - base_credits)
  cap        = org default            if addon_used <= org default
  cap        = addon_used + buffer    otherwise

and compared with the cap currently configured on the platform. Only
differing caps are written; matching caps are reported as no-ops, which
makes re-running a sync safe.

Examples:
  # Preview changes without applying them
  capsync sync --csv usage.csv --dry-run

  # Apply with the configured policy
  capsync sync --csv usage.csv

  # Only touch users consuming more than 1000 credits
  capsync sync --csv usage.csv --threshold 1000`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFlags.csvPath, "csv", "", "usage CSV export to reconcile (required)")
	syncCmd.Flags().BoolVar(&syncFlags.dryRun, "dry-run", false, "compute and print the plan without applying it")
	syncCmd.Flags().IntVar(&syncFlags.threshold, "threshold", 0, "skip rows with credits_used at or below this value")
	syncCmd.Flags().IntVar(&syncFlags.baseCredits, "base-credits", 0, "override policy base credits")
	syncCmd.Flags().IntVar(&syncFlags.orgCap, "org-cap", 0, "override policy org default cap")
	syncCmd.Flags().IntVar(&syncFlags.buffer, "buffer", 0, "override policy buffer")
	syncCmd.Flags().BoolVar(&syncFlags.skipInvalid, "skip-invalid", false, "drop malformed rows instead of rejecting the batch")
	syncCmd.Flags().BoolVar(&syncFlags.noJournal, "no-journal", false, "do not record this run in the journal")
	_ = syncCmd.MarkFlagRequired("csv")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flag overrides win over file and environment values. Changed()
	// distinguishes an explicit zero (legal for buffer and threshold)
	// from an unset flag.
	if cmd.Flags().Changed("base-credits") {
		cfg.Policy.BaseCredits = syncFlags.baseCredits
	}
	if cmd.Flags().Changed("org-cap") {
		cfg.Policy.OrgDefaultCap = syncFlags.orgCap
	}
	if cmd.Flags().Changed("buffer") {
		cfg.Policy.Buffer = syncFlags.buffer
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Sync.Threshold = syncFlags.threshold
	}
	if cmd.Flags().Changed("skip-invalid") {
		cfg.Sync.SkipInvalid = syncFlags.skipInvalid
	}
	if err := cfg.Policy.Validate(); err != nil {
		return cli.NewConfigError("policy", err.Error())
	}

	service, err := newGateway(cfg)
	if err != nil {
		return err
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if syncFlags.noJournal {
		jrnl = nil
	}
	if jrnl != nil {
		defer jrnl.Close()
	}

	ctx := cli.SetupSignalHandler()

	r := runner.New(service, jrnl, nil)
	summary, runErr := r.SyncCSV(ctx, syncFlags.csvPath, runner.Options{
		Policy:      cfg.Policy,
		Threshold:   cfg.Sync.Threshold,
		SkipInvalid: cfg.Sync.SkipInvalid,
		DryRun:      syncFlags.dryRun,
	})
	if summary == nil {
		return cli.NewCommandError("sync", runErr)
	}

	if err := renderSummary(summary); err != nil {
		return err
	}

	var partial *reconcile.PartialApplyError
	if errors.As(runErr, &partial) {
		return fmt.Errorf("%d of %d operations failed; see journal run %s",
			partial.Failed, len(summary.Plan), summary.RunID)
	}
	return runErr
}

// syncReport is the JSON shape of a run summary.
type syncReport struct {
	RunID          string     `json:"run_id,omitempty"`
	Source         string     `json:"source"`
	DryRun         bool       `json:"dry_run"`
	Records        int        `json:"records"`
	SkippedRows    []string   `json:"skipped_rows,omitempty"`
	BelowThreshold int        `json:"below_threshold"`
	Applied        int        `json:"applied"`
	Failed         int        `json:"failed"`
	Operations     []opReport `json:"operations"`
}

type opReport struct {
	Email   string `json:"email"`
	Action  string `json:"action"`
	FromCap *int   `json:"from_cap,omitempty"`
	ToCap   int    `json:"to_cap"`
	Error   string `json:"error,omitempty"`
}

func renderSummary(summary *runner.Summary) error {
	report := syncReport{
		RunID:          summary.RunID,
		Source:         summary.Source,
		DryRun:         summary.DryRun,
		Records:        summary.Records,
		BelowThreshold: summary.BelowThreshold,
		Applied:        summary.Applied,
		Failed:         summary.Failed,
	}
	for _, skipped := range summary.Skipped {
		report.SkippedRows = append(report.SkippedRows, skipped.Error())
	}

	if summary.Results != nil {
		for _, result := range summary.Results {
			op := opReport{
				Email:   result.Operation.Email,
				Action:  string(result.Operation.Action),
				FromCap: result.Operation.FromCap,
				ToCap:   result.Operation.ToCap,
			}
			if result.Err != nil {
				op.Error = result.Err.Error()
			}
			report.Operations = append(report.Operations, op)
		}
	} else {
		for _, planned := range summary.Plan {
			report.Operations = append(report.Operations, opReport{
				Email:   planned.Email,
				Action:  string(planned.Action),
				FromCap: planned.FromCap,
				ToCap:   planned.ToCap,
			})
		}
	}

	if outputFormat == "json" {
		return formatter().FormatTo(os.Stdout, report)
	}

	table := cli.NewTable(os.Stdout)
	table.Row("ACTION", "EMAIL", "FROM", "TO", "STATUS")
	for _, op := range report.Operations {
		from := "-"
		if op.FromCap != nil {
			from = fmt.Sprintf("%d", *op.FromCap)
		}
		status := "ok"
		switch {
		case summary.DryRun:
			status = "planned"
		case op.Error != "":
			status = op.Error
		}
		table.Row(op.Action, op.Email, from, op.ToCap, status)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	for _, skipped := range report.SkippedRows {
		fmt.Printf("skipped: %s\n", skipped)
	}

	label := "applied"
	if summary.DryRun {
		label = "planned"
	}
	fmt.Printf("\n%d records, %d below threshold, %d operations %s, %d failed\n",
		summary.Records, summary.BelowThreshold, len(report.Operations), label, summary.Failed)
	return nil
}
