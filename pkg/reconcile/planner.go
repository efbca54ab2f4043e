package reconcile

import (
	"windreef/capsync/pkg/gateway"
	"windreef/capsync/pkg/policy"
)

// Plan diffs cap targets against the current remote state and returns
// one operation per target, in target order.
//
// A user present in current with a matching cap gets a NOOP; with a
// differing cap, an UPDATE. A user absent from current, or present
// without an individual cap, gets a CREATE. The plan never contains an
// operation for a user that has no target: caps are only ever changed
// because the current policy run asked for it.
func Plan(targets []policy.Target, current map[string]gateway.CapState) []ChangeOperation {
	ops := make([]ChangeOperation, 0, len(targets))

	for _, target := range targets {
		state, known := current[target.Email]

		switch {
		case !known || state.Cap == nil:
			ops = append(ops, ChangeOperation{
				Email:  target.Email,
				Action: ActionCreate,
				ToCap:  target.Cap,
			})

		case *state.Cap == target.Cap:
			ops = append(ops, ChangeOperation{
				Email:   target.Email,
				Action:  ActionNoop,
				FromCap: state.Cap,
				ToCap:   target.Cap,
			})

		default:
			ops = append(ops, ChangeOperation{
				Email:   target.Email,
				Action:  ActionUpdate,
				FromCap: state.Cap,
				ToCap:   target.Cap,
			})
		}
	}

	return ops
}

// Writes returns the subset of a plan that needs a network write,
// preserving order.
func Writes(ops []ChangeOperation) []ChangeOperation {
	var writes []ChangeOperation
	for _, op := range ops {
		if op.Action != ActionNoop {
			writes = append(writes, op)
		}
	}
	return writes
}
