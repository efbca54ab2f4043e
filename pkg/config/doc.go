// Package config loads and validates capsync configuration.
//
// # Loading sequence
//
// Configuration comes from an optional YAML file plus environment
// variable overrides:
//
//  1. Parse the YAML file (skipped when no path is given)
//  2. Apply default values
//  3. Apply CAPSYNC_* environment overrides
//  4. Validate the final configuration
//
// Environment variables always win over file values, so a deployment
// can keep the service key out of the file entirely and supply it via
// CAPSYNC_SERVICE_KEY.
//
// The engine packages never read configuration themselves; the CLI
// loads it here and hands each collaborator its explicit slice.
package config
