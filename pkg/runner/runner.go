package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/journal"
	"windreef/capsync/pkg/policy"
	"windreef/capsync/pkg/reconcile"
	"windreef/capsync/pkg/usage"
)

// Options control one reconciliation run.
type Options struct {
	// Policy contains the cap computation knobs.
	Policy policy.Config

	// Threshold skips records whose total usage is at or below this
	// value; those users stay on whatever cap they already have.
	// Zero processes every record.
	Threshold int

	// SkipInvalid drops malformed rows instead of rejecting the batch.
	SkipInvalid bool

	// DryRun computes and plans but applies nothing.
	DryRun bool
}

// Summary is the outcome of one run.
type Summary struct {
	// RunID is the journal identifier; empty when journaling is off.
	RunID string

	// Source describes the input, typically the CSV path.
	Source string

	// Records is the number of validated usage records.
	Records int

	// Skipped lists rows dropped by the skip-invalid policy.
	Skipped []*usage.ValidationError

	// BelowThreshold is the number of records filtered out by the
	// usage threshold.
	BelowThreshold int

	// Plan is the full operation list, in input order.
	Plan []reconcile.ChangeOperation

	// Results holds per-operation apply outcomes; nil on a dry run.
	Results []reconcile.OperationResult

	// Applied and Failed count the apply outcomes.
	Applied int
	Failed  int

	// DryRun records whether the plan was applied.
	DryRun bool
}

// Outcome classifies the run for journaling and metrics.
func (s *Summary) Outcome() string {
	switch {
	case s.DryRun:
		return "dry_run"
	case s.Failed > 0:
		return "partial"
	default:
		return "success"
	}
}

// Runner executes reconciliation runs against one gateway.
type Runner struct {
	service gateway.CapService
	journal *journal.Journal
	metrics *reconcile.Metrics
	logger  *slog.Logger
}

// New creates a runner. The journal and metrics arguments may be nil.
func New(service gateway.CapService, jrnl *journal.Journal, metrics *reconcile.Metrics) *Runner {
	return &Runner{
		service: service,
		journal: jrnl,
		metrics: metrics,
		logger:  slog.Default().With("component", "runner"),
	}
}

// SyncCSV runs a full reconciliation for a usage CSV export.
//
// The returned summary is valid even when err is non-nil, as long as
// it is non-nil itself: a partial apply still has results worth
// showing. Parse and fetch failures return a nil summary.
func (r *Runner) SyncCSV(ctx context.Context, path string, opts Options) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage export: %w", err)
	}
	defer f.Close()

	parser := &usage.Parser{SkipInvalid: opts.SkipInvalid}
	parsed, err := parser.ParseCSV(f)
	if err != nil {
		return nil, err
	}

	return r.SyncRecords(ctx, path, parsed, opts)
}

// SyncRecords runs a reconciliation for already-parsed usage records.
func (r *Runner) SyncRecords(ctx context.Context, source string, parsed *usage.Result, opts Options) (*Summary, error) {
	started := time.Now()

	summary := &Summary{
		Source:  source,
		Skipped: parsed.Skipped,
		DryRun:  opts.DryRun,
	}

	records := parsed.Records
	if opts.Threshold > 0 {
		kept := make([]usage.Record, 0, len(records))
		for _, record := range records {
			if record.CreditsUsed > opts.Threshold {
				kept = append(kept, record)
			}
		}
		summary.BelowThreshold = len(records) - len(kept)
		records = kept
	}
	summary.Records = len(records)

	targets := policy.ComputeTargets(records, opts.Policy)

	emails := make([]string, len(targets))
	for i, target := range targets {
		emails[i] = target.Email
	}

	current, err := r.service.FetchCurrentCaps(ctx, emails)
	if err != nil {
		return nil, err
	}

	summary.Plan = reconcile.Plan(targets, current)
	if r.metrics != nil {
		r.metrics.RecordPlan(summary.Plan)
	}

	r.logger.Info("plan computed",
		"source", source,
		"records", summary.Records,
		"operations", len(summary.Plan),
		"writes", len(reconcile.Writes(summary.Plan)),
		"dry_run", opts.DryRun,
	)

	if opts.DryRun {
		r.record(ctx, started, summary)
		return summary, nil
	}

	applier := reconcile.NewApplier(r.service, r.metrics)
	results, applyErr := applier.Apply(ctx, summary.Plan)
	summary.Results = results
	for _, result := range results {
		if result.Err != nil {
			summary.Failed++
		} else {
			summary.Applied++
		}
	}

	if r.metrics != nil {
		r.metrics.RecordRun(summary.Outcome())
	}
	r.record(ctx, started, summary)

	return summary, applyErr
}

// record writes the run to the journal, if one is configured.
// Journaling failures are logged, never propagated: bookkeeping must
// not fail a run that already changed remote state.
func (r *Runner) record(ctx context.Context, started time.Time, summary *Summary) {
	if r.journal == nil {
		return
	}

	summary.RunID = journal.NewRunID()

	run := journal.Run{
		ID:         summary.RunID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Source:     summary.Source,
		Outcome:    summary.Outcome(),
		Planned:    len(summary.Plan),
		Applied:    summary.Applied,
		Failed:     summary.Failed,
	}

	var ops []journal.Operation
	if summary.Results != nil {
		for _, result := range summary.Results {
			op := journal.Operation{
				Email:   result.Operation.Email,
				Action:  string(result.Operation.Action),
				FromCap: result.Operation.FromCap,
				ToCap:   result.Operation.ToCap,
			}
			if result.Err != nil {
				op.Error = result.Err.Error()
			}
			ops = append(ops, op)
		}
	} else {
		for _, planned := range summary.Plan {
			ops = append(ops, journal.Operation{
				Email:   planned.Email,
				Action:  string(planned.Action),
				FromCap: planned.FromCap,
				ToCap:   planned.ToCap,
			})
		}
	}

	if err := r.journal.RecordRun(ctx, run, ops); err != nil {
		r.logger.Warn("failed to journal run",
			"run_id", run.ID,
			"error", err,
		)
		summary.RunID = ""
	}
}
