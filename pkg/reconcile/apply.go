package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"windreef/capsync/pkg/gateway"
)

// CapWriter is the slice of the gateway the applier needs.
type CapWriter interface {
	// SetUserCap sets an individual add-on cap for one user.
	SetUserCap(ctx context.Context, email string, cap int) error
}

// Applier drives planned operations through the gateway.
type Applier struct {
	writer  CapWriter
	logger  *slog.Logger
	metrics *Metrics
}

// NewApplier creates an applier writing through the given gateway.
// The metrics argument may be nil.
func NewApplier(writer CapWriter, metrics *Metrics) *Applier {
	return &Applier{
		writer:  writer,
		logger:  slog.Default().With("component", "reconcile.applier"),
		metrics: metrics,
	}
}

// Apply executes a plan one operation at a time.
//
// NOOPs are recorded as successes without touching the network. A
// failed write is recorded and the apply continues; nothing already
// applied is rolled back. The returned results always cover every
// operation attempted, in plan order.
//
// When some operations failed, the error is a *PartialApplyError
// wrapping the same results. An authentication failure stops the apply
// early, since every remaining write would fail identically, and is
// returned as is together with the results collected so far.
func (a *Applier) Apply(ctx context.Context, ops []ChangeOperation) ([]OperationResult, error) {
	results := make([]OperationResult, 0, len(ops))
	applied := 0
	failed := 0

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if op.Action == ActionNoop {
			results = append(results, OperationResult{Operation: op})
			applied++
			a.observe(op, nil)
			continue
		}

		err := a.writer.SetUserCap(ctx, op.Email, op.ToCap)
		results = append(results, OperationResult{Operation: op, Err: err})
		a.observe(op, err)

		if err == nil {
			a.logger.Info("cap applied",
				"email", op.Email,
				"action", string(op.Action),
				"cap", op.ToCap,
			)
			applied++
			continue
		}

		failed++
		a.logger.Error("cap apply failed",
			"email", op.Email,
			"action", string(op.Action),
			"cap", op.ToCap,
			"error", err,
		)

		var authErr *gateway.AuthenticationError
		if errors.As(err, &authErr) {
			return results, err
		}
	}

	if failed > 0 {
		return results, &PartialApplyError{
			Applied: applied,
			Failed:  failed,
			Results: results,
		}
	}

	return results, nil
}

// observe records one operation outcome in the metrics, if configured.
func (a *Applier) observe(op ChangeOperation, err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordApply(op.Action, err == nil)
}
