// Package journal records reconciliation runs in a local SQLite
// database.
//
// # Overview
//
// The engine itself is stateless; the journal exists for the operator.
// After each run it stores what was planned and what actually happened
// per user, so a partial failure can be investigated (and safely
// re-run) later without digging through logs.
//
// The journal is write-behind bookkeeping only: nothing in the cap
// computation or planning path reads from it, and a journaling failure
// never fails a run.
package journal
