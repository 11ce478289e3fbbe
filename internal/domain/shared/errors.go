package shared

import "fmt"

// ValidationError reports a malformed intent rejected before any store call
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}
