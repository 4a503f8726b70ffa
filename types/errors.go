package types

import "fmt"

// ValidationError reports a structurally invalid batch, record, or
// configuration field.
type ValidationError struct {
	// Field is the name of the offending field or member.
	Field string

	// Message describes what is wrong.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
