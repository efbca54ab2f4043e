package usage

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names recognized by the parser.
const (
	FieldEmail       = "email"
	FieldCreditsUsed = "credits_used"
	FieldName        = "name"
)

// Record is one user's usage snapshot for a single run.
//
// Records are immutable once created and live only for the duration of
// one reconciliation pass; nothing in this repository persists them.
type Record struct {
	// Email uniquely identifies the user within a batch.
	Email string

	// Name is the user's display name, if the input carried one.
	Name string

	// CreditsUsed is the user's total credit consumption (base plus
	// add-on), never negative.
	CreditsUsed int
}

// ValidateEmail checks the address format accepted by the parser:
// non-empty and containing exactly one '@'.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is empty")
	}
	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("email %q must contain exactly one '@'", email)
	}
	return nil
}

// parseCredits parses a credits_used value as a non-negative integer.
func parseCredits(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("credits_used %q is not an integer", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("credits_used %d is negative", n)
	}
	return n, nil
}
