package brevq

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrLocked     = errors.New("record is locked")
	ErrConflict   = errors.New("record changed concurrently")
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected submission. Nothing has been
// persisted when it is returned.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func Invalid(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LockedError is returned when an edit or cancel hits a record that can no
// longer change.
type LockedError struct {
	ID     string
	Reason string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("record %s is locked: %s", e.ID, e.Reason)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// ErrorResponse is the body of every non 2xx api response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Err maps a response back to the error it was made from, so errors.Is works
// the same on both sides of the api.
func (r ErrorResponse) Err(status int) error {
	switch status {
	case 400:
		return &ValidationError{Field: r.Field, Reason: r.Error}
	case 404:
		return fmt.Errorf("%s, %w", r.Error, ErrNotFound)
	case 409:
		return fmt.Errorf("%s, %w", r.Error, ErrLocked)
	}
	return fmt.Errorf("api responded %d: %s", status, r.Error)
}
