package usage

import "fmt"

// ValidationError reports a malformed input row. The row index is the
// 1-based position of the data row (header row excluded).
type ValidationError struct {
	Row   int    // 1-based data row index
	Field string // field that failed validation
	Cause error  // underlying error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid row %d: field %q: %v", e.Row, e.Field, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(row int, field string, cause error) *ValidationError {
	return &ValidationError{
		Row:   row,
		Field: field,
		Cause: cause,
	}
}

// DuplicateError reports a batch containing the same email twice.
// The batch is rejected rather than auto-resolved: two rows for one
// user are ambiguous input, and picking either would silently apply
// an arbitrary cap.
type DuplicateError struct {
	Email    string // the duplicated address
	FirstRow int    // row where the email first appeared
	Row      int    // row of the duplicate occurrence
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate email %q: row %d repeats row %d", e.Email, e.Row, e.FirstRow)
}

// NewDuplicateError creates a new DuplicateError.
func NewDuplicateError(email string, firstRow, row int) *DuplicateError {
	return &DuplicateError{
		Email:    email,
		FirstRow: firstRow,
		Row:      row,
	}
}
