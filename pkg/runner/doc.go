// Package runner orchestrates one full reconciliation run: parse the
// usage export, compute targets, fetch remote state, plan, apply, and
// journal the outcome.
//
// The runner owns no decision logic of its own; it sequences the
// usage, policy, reconcile and gateway packages and reports a summary
// the CLI and the watch daemon can both render.
package runner
