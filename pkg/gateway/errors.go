package gateway

import "fmt"

// AuthenticationError means the platform rejected the service key.
// It is terminal for the run: retrying with the same key cannot help.
type AuthenticationError struct {
	StatusCode int    // HTTP status returned by the platform
	Message    string // response body, truncated
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d): %s", e.StatusCode, e.Message)
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(statusCode int, message string) *AuthenticationError {
	return &AuthenticationError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ServiceUnavailableError means the platform could not serve a request
// after the client exhausted its retries.
type ServiceUnavailableError struct {
	Operation string // endpoint operation that failed
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service unavailable [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ServiceUnavailableError) Unwrap() error {
	return e.Cause
}

// NewServiceUnavailableError creates a new ServiceUnavailableError.
func NewServiceUnavailableError(operation string, cause error) *ServiceUnavailableError {
	return &ServiceUnavailableError{
		Operation: operation,
		Cause:     cause,
	}
}
