package reconcile

import "fmt"

// Action is the kind of change an operation performs.
type Action string

const (
	// ActionCreate sets a cap for a user who has no individual cap.
	ActionCreate Action = "CREATE"

	// ActionUpdate replaces a user's existing individual cap.
	ActionUpdate Action = "UPDATE"

	// ActionNoop means the remote cap already matches the target.
	ActionNoop Action = "NOOP"
)

// ChangeOperation is one planned change for one user. It carries no
// state beyond a single reconciliation pass.
type ChangeOperation struct {
	// Email identifies the user.
	Email string

	// Action is what the operation does.
	Action Action

	// FromCap is the cap currently configured remotely. Nil when the
	// user has no individual cap (CREATE).
	FromCap *int

	// ToCap is the computed target cap.
	ToCap int
}

// String renders the operation for logs and plan output.
func (op ChangeOperation) String() string {
	switch op.Action {
	case ActionCreate:
		return fmt.Sprintf("CREATE %s: cap %d", op.Email, op.ToCap)
	case ActionUpdate:
		return fmt.Sprintf("UPDATE %s: cap %d -> %d", op.Email, *op.FromCap, op.ToCap)
	default:
		return fmt.Sprintf("NOOP   %s: cap %d", op.Email, op.ToCap)
	}
}

// OperationResult is the outcome of applying one operation.
type OperationResult struct {
	// Operation is the operation that was attempted.
	Operation ChangeOperation

	// Err is nil on success.
	Err error
}

// PartialApplyError reports that some operations in an apply pass
// failed. Operations applied before a failure are not rolled back.
type PartialApplyError struct {
	// Applied is the number of operations that succeeded.
	Applied int

	// Failed is the number of operations that failed.
	Failed int

	// Results holds the per-operation outcomes, in plan order.
	Results []OperationResult
}

// Error implements the error interface.
func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("partial apply: %d of %d operations failed", e.Failed, e.Applied+e.Failed)
}

// FailedEmails returns the emails of the operations that failed.
func (e *PartialApplyError) FailedEmails() []string {
	var emails []string
	for _, result := range e.Results {
		if result.Err != nil {
			emails = append(emails, result.Operation.Email)
		}
	}
	return emails
}
