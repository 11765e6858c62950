package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel all validation failures unwrap to.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a malformed or incomplete reading payload.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid reading: " + e.Problem
	}
	return fmt.Sprintf("invalid reading: %s %s", e.Field, e.Problem)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StoreError wraps a persistence failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
