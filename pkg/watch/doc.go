// Package watch runs reconciliation continuously from a drop
// directory.
//
// # Overview
//
// Operators export usage CSVs into a directory; the daemon picks up
// each new or rewritten export and triggers a reconciliation run for
// it. Events are debounced so a slow export that is still being
// written does not trigger a run per write.
//
// Optionally a cron schedule re-runs the most recent export
// periodically, which re-converges caps if an earlier run failed
// partway: reconciliation is idempotent, so a re-run of already
// applied state is all no-ops.
package watch
