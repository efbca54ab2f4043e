// Package policy computes per-user add-on credit cap targets.
//
// # Overview
//
// Every user gets a free base credit allowance; consumption beyond it
// draws from a capped add-on pool. The policy engine derives the cap
// each user should have from their total usage and three knobs:
//
//   - BaseCredits: free allowance subtracted before any cap math
//   - OrgDefaultCap: organization-wide add-on cap, the floor for everyone
//   - Buffer: headroom granted above current usage when a user has
//     outgrown the org default
//
// A user whose add-on usage fits under the org default keeps the org
// default. A user beyond it gets an individual override of their
// current add-on usage plus the buffer, so they are not blocked the
// moment the new cap lands but do not get unlimited capacity either.
// An override is never below the org default.
//
// # Determinism
//
// ComputeTarget is a pure function: no I/O, no clock, no state. The
// same record and config always produce the same target, which is what
// makes repeated reconciliation runs converge to all no-ops.
package policy
