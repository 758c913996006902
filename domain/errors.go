package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an unknown card id. Callers check it with errors.Is.
var ErrNotFound = errors.New("card not found")

// ValidationError reports malformed or missing input. It is surfaced to the
// caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
