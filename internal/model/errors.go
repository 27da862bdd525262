package model

import (
	"errors"
	"strings"
)

// ValidationError reports a rejected field set on a create or update payload.
// Fields names the offending JSON keys so clients can highlight them.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationFields returns the offending field names carried by err, if any.
func ValidationFields(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

func missingFields(fields []string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}
