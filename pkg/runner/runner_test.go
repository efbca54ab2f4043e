package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"windreef/capsync/internal/gatewaytest"
	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/journal"
	"windreef/capsync/pkg/policy"
	"windreef/capsync/pkg/reconcile"
	"windreef/capsync/pkg/runner"
)

const testServiceKey = "test-service-key"

var stockPolicy = policy.Config{
	BaseCredits:   500,
	OrgDefaultCap: 1000,
	Buffer:        500,
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usage.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T, srv *gatewaytest.Server, jrnl *journal.Journal) *runner.Runner {
	t.Helper()
	client, err := gateway.NewClient(gateway.ClientConfig{
		BaseURL:    srv.URL(),
		ServiceKey: testServiceKey,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return runner.New(client, jrnl, nil)
}

func TestSyncCSV_AppliesPlan(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	// alice: 700 add-on, within the org cap. bob: 1500 add-on, needs
	// an override at 2000.
	path := writeCSV(t, "email,credits_used\n"+
		"alice@example.com,1200\n"+
		"bob@example.com,2000\n")

	r := newTestRunner(t, srv, nil)
	summary, err := r.SyncCSV(context.Background(), path, runner.Options{Policy: stockPolicy})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Records != 2 || summary.Applied != 2 || summary.Failed != 0 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if cap, ok := srv.UserCap("alice@example.com"); !ok || cap != 1000 {
		t.Errorf("Expected alice at 1000, got %d (present=%v)", cap, ok)
	}
	if cap, ok := srv.UserCap("bob@example.com"); !ok || cap != 2000 {
		t.Errorf("Expected bob at 2000, got %d (present=%v)", cap, ok)
	}
}

func TestSyncCSV_DryRunWritesNothing(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	path := writeCSV(t, "email,credits_used\nalice@example.com,2000\n")

	r := newTestRunner(t, srv, nil)
	summary, err := r.SyncCSV(context.Background(), path, runner.Options{
		Policy: stockPolicy,
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(summary.Plan) != 1 || summary.Plan[0].Action != reconcile.ActionCreate {
		t.Errorf("Expected a single CREATE in the plan, got %+v", summary.Plan)
	}
	if summary.Results != nil {
		t.Error("Expected no apply results on a dry run")
	}
	if _, ok := srv.UserCap("alice@example.com"); ok {
		t.Error("Dry run must not write caps")
	}
	if summary.Outcome() != "dry_run" {
		t.Errorf("Expected dry_run outcome, got %s", summary.Outcome())
	}
}

func TestSyncCSV_SecondRunIsAllNoops(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	path := writeCSV(t, "email,credits_used\n"+
		"alice@example.com,1200\n"+
		"bob@example.com,2000\n")

	r := newTestRunner(t, srv, nil)
	ctx := context.Background()

	if _, err := r.SyncCSV(ctx, path, runner.Options{Policy: stockPolicy}); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	requestsAfterFirst := srv.RequestCount()

	summary, err := r.SyncCSV(ctx, path, runner.Options{Policy: stockPolicy})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	for _, op := range summary.Plan {
		if op.Action != reconcile.ActionNoop {
			t.Errorf("Expected NOOP on re-run, got %s for %s", op.Action, op.Email)
		}
	}
	// The second run only reads: two cap fetches, zero writes.
	if got := srv.RequestCount() - requestsAfterFirst; got != 2 {
		t.Errorf("Expected 2 requests on the all-NOOP run, got %d", got)
	}
}

func TestSyncCSV_ThresholdFiltersRecords(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	path := writeCSV(t, "email,credits_used\n"+
		"light@example.com,400\n"+
		"heavy@example.com,2000\n")

	r := newTestRunner(t, srv, nil)
	summary, err := r.SyncCSV(context.Background(), path, runner.Options{
		Policy:    stockPolicy,
		Threshold: 400,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Records != 1 || summary.BelowThreshold != 1 {
		t.Errorf("Expected 1 kept and 1 filtered, got %+v", summary)
	}
	// The filtered user is never touched.
	if _, ok := srv.UserCap("light@example.com"); ok {
		t.Error("Expected light user untouched")
	}
	if cap, ok := srv.UserCap("heavy@example.com"); !ok || cap != 2000 {
		t.Errorf("Expected heavy user at 2000, got %d (present=%v)", cap, ok)
	}
}

func TestSyncCSV_PartialFailure(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	path := writeCSV(t, "email,credits_used\n"+
		"alice@example.com,1200\n"+
		"bob@example.com,2000\n")

	// Both fetches succeed, then the first write fails through every
	// retry while the second write goes through.
	srv.FailNext("/api/v1/UsageConfig", 3)

	r := newTestRunner(t, srv, nil)
	summary, err := r.SyncCSV(context.Background(), path, runner.Options{Policy: stockPolicy})

	var partial *reconcile.PartialApplyError
	if !errors.As(err, &partial) {
		t.Fatalf("Expected PartialApplyError, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected a summary alongside the partial error")
	}
	if summary.Applied != 1 || summary.Failed != 1 {
		t.Errorf("Expected 1 applied 1 failed, got %+v", summary)
	}
	if summary.Outcome() != "partial" {
		t.Errorf("Expected partial outcome, got %s", summary.Outcome())
	}
}

func TestSyncCSV_JournalsRuns(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	jrnl, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer jrnl.Close()

	path := writeCSV(t, "email,credits_used\nalice@example.com,2000\n")

	r := newTestRunner(t, srv, jrnl)
	ctx := context.Background()

	summary, err := r.SyncCSV(ctx, path, runner.Options{Policy: stockPolicy})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("Expected a journal run ID")
	}

	runs, err := jrnl.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID {
		t.Fatalf("Expected the run in the journal, got %+v", runs)
	}
	if runs[0].Outcome != "success" || runs[0].Planned != 1 || runs[0].Applied != 1 {
		t.Errorf("Unexpected journaled run: %+v", runs[0])
	}

	ops, err := jrnl.RunOperations(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("RunOperations failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Email != "alice@example.com" || ops[0].Action != "CREATE" {
		t.Errorf("Unexpected journaled operations: %+v", ops)
	}
	if ops[0].ToCap != 2000 {
		t.Errorf("Expected journaled cap 2000, got %d", ops[0].ToCap)
	}
}

func TestSyncCSV_SkipInvalid(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	path := writeCSV(t, "email,credits_used\n"+
		"alice@example.com,2000\n"+
		"not-an-email,100\n")

	r := newTestRunner(t, srv, nil)

	// Without skip-invalid the batch is rejected outright.
	if _, err := r.SyncCSV(context.Background(), path, runner.Options{Policy: stockPolicy}); err == nil {
		t.Fatal("Expected error for invalid row")
	}

	summary, err := r.SyncCSV(context.Background(), path, runner.Options{
		Policy:      stockPolicy,
		SkipInvalid: true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.Records != 1 || len(summary.Skipped) != 1 {
		t.Errorf("Expected 1 record and 1 skipped row, got %+v", summary)
	}
}

func TestSyncCSV_MissingFile(t *testing.T) {
	srv := gatewaytest.New(testServiceKey)
	defer srv.Close()

	r := newTestRunner(t, srv, nil)
	_, err := r.SyncCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"),
		runner.Options{Policy: stockPolicy})
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}
