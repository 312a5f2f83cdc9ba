package services

import "fmt"

// ValidationError reports the first invalid input field. Raised before any
// browser session opens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: field %q %s", e.Field, e.Reason)
}

// FieldNotFoundError means a required form field matched none of its selector
// candidates. Fatal for the run.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("required field %q not found on page", e.Field)
}

// ExternalServiceError wraps a failure from a collaborator (browser driver,
// mail API, artifact store). Surfaced verbatim to the caller.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
