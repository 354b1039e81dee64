package model

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidatePage checks pagination arguments. perPage must be positive and
// page is 1-based.
func ValidatePage(perPage, page int) error {
	var ve ValidationError
	if perPage <= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "per_page",
			Message: fmt.Sprintf("must be positive, got %d", perPage),
		})
	}
	if page < 1 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "page",
			Message: fmt.Sprintf("must be at least 1, got %d", page),
		})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// PageOffset returns the row offset of a 1-based page. ok is false when the
// offset does not fit in an int; no such page can hold rows.
func PageOffset(perPage, page int) (offset int, ok bool) {
	if page-1 > math.MaxInt/perPage {
		return 0, false
	}
	return (page - 1) * perPage, true
}

// ValidateRecord checks a record before it is appended to the log.
func ValidateRecord(r *Record) error {
	var ve ValidationError
	if r.NodeID == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "node_id", Message: "is required"})
	}
	if strings.TrimSpace(r.ActionName) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "action_name", Message: "is required"})
	}
	if r.Timestamp.IsZero() {
		ve.Errors = append(ve.Errors, FieldError{Field: "timestamp", Message: "is required"})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
