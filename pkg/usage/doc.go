// Package usage parses raw usage input into validated usage records.
//
// # Overview
//
// The usage package is the input boundary of the cap engine. It accepts
// either pre-split rows (field name to value) or a CSV stream exported
// from the platform's analytics page, and produces Record values that
// the policy engine consumes.
//
// # Validation
//
// Every row must carry an email (non-empty, exactly one '@') and a
// credits_used value that parses as a non-negative integer. A name
// column is optional. Rows that fail validation produce a
// ValidationError naming the row and field; a batch containing the same
// email twice produces a DuplicateError and is rejected as a whole,
// because silently keeping one of the two rows would apply an arbitrary
// cap.
//
// # Purity
//
// Parsing has no side effects and makes a single pass over the input.
// Records are immutable once produced.
package usage
