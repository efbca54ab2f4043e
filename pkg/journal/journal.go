package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one recorded reconciliation run.
type Run struct {
	// ID is the run's unique identifier.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// Source describes the input, typically the CSV path.
	Source string

	// Outcome is "success", "partial" or "failed".
	Outcome string

	// Planned, Applied and Failed count the run's operations.
	Planned int
	Applied int
	Failed  int
}

// Operation is one recorded change operation within a run.
type Operation struct {
	// Email identifies the user.
	Email string

	// Action is CREATE, UPDATE or NOOP.
	Action string

	// FromCap is the cap before the change; nil for CREATE.
	FromCap *int

	// ToCap is the cap the operation targeted.
	ToCap int

	// Error is the failure message, empty on success.
	Error string
}

// NewRunID returns a fresh unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Journal persists runs to a SQLite database file.
type Journal struct {
	db *sql.DB

	insertRunStmt *sql.Stmt
	insertOpStmt  *sql.Stmt
}

// Open opens (and if necessary creates) the journal database.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}

	// WAL keeps readers (history command) from blocking a writing run.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, int((5 * time.Second).Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{db: db}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare journal statements: %w", err)
	}

	return j, nil
}

// initSchema creates the journal tables if they do not exist.
func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		source TEXT NOT NULL,
		outcome TEXT NOT NULL,
		planned INTEGER NOT NULL,
		applied INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS operations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		email TEXT NOT NULL,
		action TEXT NOT NULL,
		from_cap INTEGER,
		to_cap INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_operations_email ON operations(email);
	`

	_, err := j.db.Exec(schema)
	return err
}

// prepareStatements prepares the write statements for reuse.
func (j *Journal) prepareStatements() error {
	var err error

	j.insertRunStmt, err = j.db.Prepare(`
		INSERT INTO runs (id, started_at, finished_at, source, outcome, planned, applied, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run insert: %w", err)
	}

	j.insertOpStmt, err = j.db.Prepare(`
		INSERT INTO operations (run_id, position, email, action, from_cap, to_cap, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare operation insert: %w", err)
	}

	return nil
}

// RecordRun stores a completed run and its operations atomically.
func (j *Journal) RecordRun(ctx context.Context, run Run, ops []Operation) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.StmtContext(ctx, j.insertRunStmt).ExecContext(ctx,
		run.ID,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.Source,
		run.Outcome,
		run.Planned,
		run.Applied,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for i, op := range ops {
		var fromCap sql.NullInt64
		if op.FromCap != nil {
			fromCap = sql.NullInt64{Int64: int64(*op.FromCap), Valid: true}
		}

		_, err = tx.StmtContext(ctx, j.insertOpStmt).ExecContext(ctx,
			run.ID, i, op.Email, op.Action, fromCap, op.ToCap, op.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to insert operation for %s: %w", op.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal transaction: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, source, outcome, planned, applied, failed
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		if err := rows.Scan(&run.ID, &started, &finished, &run.Source,
			&run.Outcome, &run.Planned, &run.Applied, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunOperations returns the operations recorded for one run, in plan
// order.
func (j *Journal) RunOperations(ctx context.Context, runID string) ([]Operation, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT email, action, from_cap, to_cap, error
		FROM operations
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations for run %s: %w", runID, err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		var fromCap sql.NullInt64
		if err := rows.Scan(&op.Email, &op.Action, &fromCap, &op.ToCap, &op.Error); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		if fromCap.Valid {
			v := int(fromCap.Int64)
			op.FromCap = &v
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Close releases the journal's database resources.
func (j *Journal) Close() error {
	if j.insertRunStmt != nil {
		j.insertRunStmt.Close()
	}
	if j.insertOpStmt != nil {
		j.insertOpStmt.Close()
	}
	return j.db.Close()
}
