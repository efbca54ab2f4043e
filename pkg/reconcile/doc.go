// Package reconcile diffs computed cap targets against remote state and
// applies the minimal set of changes.
//
// # Overview
//
// The planner compares the caps users should have (policy targets)
// with the caps the platform currently reports, and emits one change
// operation per target: CREATE where no individual cap exists, UPDATE
// where the cap differs, NOOP where it already matches. Operations come
// out in target order, never regrouped by action, so two runs over the
// same input produce byte-identical plans and logs.
//
// # Idempotence
//
// NOOP detection is what makes repeated runs safe: after a successful
// apply, re-planning against the refreshed remote state yields an
// all-NOOP plan and no network writes. Combined with at-least-once
// apply semantics at the gateway this gives effective idempotence
// across partial failures.
//
// # Safety
//
// The planner only ever emits operations for the targets it was given.
// It never deletes a cap and never lowers one implicitly; clearing caps
// is a separate, explicit operation at the CLI level.
//
// # Partial failure
//
// Apply drives operations through the gateway one at a time. A failed
// operation does not roll back or abort the ones already applied; the
// caller receives a per-operation result list and a PartialApplyError
// summarizing what failed. Authentication failures are the exception:
// the remaining operations are certain to fail the same way, so the
// apply stops early and surfaces the error as is.
package reconcile
