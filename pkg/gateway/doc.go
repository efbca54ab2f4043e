// Package gateway is the HTTP boundary to the remote developer-tooling
// platform that actually stores credit caps.
//
// # Overview
//
// The rest of the repository depends only on the CapService interface;
// the HTTP client here is one implementation of it. The engine never
// reads environment variables or URLs itself: base URL and service key
// are explicit constructor input.
//
// # Protocol
//
// The platform exposes three JSON-over-POST endpoints:
//
//   - /api/v1/GetUsageConfig: read the cap for the organization or one user
//   - /api/v1/UsageConfig: set or clear a cap
//   - /api/v1/UserPageAnalytics: list users with usage statistics
//
// Every request carries the service key in the body. Caps come back in
// the addOnCreditCap field; its absence means the subject inherits the
// organization default.
//
// # Failure model
//
// Transient failures (5xx, transport errors) are retried with
// exponential backoff inside the client, because retry policy belongs
// to this boundary and not to the pure engine. Authentication failures
// (401/403) surface as AuthenticationError and are never retried.
// Everything else surfaces as ServiceUnavailableError. A bulk cap fetch
// tolerates per-user failures and returns the users it could resolve;
// a missing user simply means "no current cap".
package gateway
