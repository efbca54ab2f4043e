package gateway

import "context"

// CapState is a read-only snapshot of one user's remotely configured
// add-on cap. It is input to reconciliation and never mutated by the
// engine.
type CapState struct {
	// Email identifies the user.
	Email string

	// Cap is the user's individual add-on cap. Nil means no individual
	// cap is configured and the user inherits the organization default.
	Cap *int
}

// User is one entry from the platform's user analytics listing.
type User struct {
	// Name is the user's display name.
	Name string

	// Email is the user's address.
	Email string
}

// CapService is the contract the engine depends on.
//
// Implementations own all transport concerns: timeouts, retries, and
// authentication. Partial results from FetchCurrentCaps are valid;
// an email absent from the returned map means "no current cap known".
type CapService interface {
	// FetchCurrentCaps returns the current individual caps for the
	// given emails. Users without an individual cap appear with a nil
	// Cap; users that could not be resolved are omitted.
	FetchCurrentCaps(ctx context.Context, emails []string) (map[string]CapState, error)

	// FetchOrgCap returns the organization-wide add-on cap, or nil if
	// none is configured.
	FetchOrgCap(ctx context.Context) (*int, error)

	// SetUserCap sets an individual add-on cap for one user.
	SetUserCap(ctx context.Context, email string, cap int) error

	// ClearUserCap removes a user's individual cap so they inherit the
	// organization default.
	ClearUserCap(ctx context.Context, email string) error

	// SetOrgCap sets the organization-wide add-on cap.
	SetOrgCap(ctx context.Context, cap int) error

	// ClearOrgCap removes the organization-wide cap.
	ClearOrgCap(ctx context.Context) error

	// ListUsers returns the organization's users.
	ListUsers(ctx context.Context) ([]User, error)
}
