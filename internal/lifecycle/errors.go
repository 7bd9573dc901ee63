package lifecycle

import (
	"errors"
	"fmt"
)

// ErrAlreadyArchived is returned when archiving a task that is already archived.
var ErrAlreadyArchived = errors.New("task already archived")

// ValidationError is a caller mistake that should be corrected, not retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationError builds a ValidationError for callers outside the engine
// that validate on its behalf (request decoding, registration).
func NewValidationError(field, message string) error {
	return invalid(field, message)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
