package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is matched by every request validation failure.
	ErrInvalidParameters = errors.New("invalid scheduling parameters")
	// ErrMalformedInterval marks a busy interval that was dropped.
	ErrMalformedInterval = errors.New("malformed busy interval")
)

// InvalidParametersError names the request field that failed validation.
type InvalidParametersError struct {
	Field  string
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidParameters, e.Field, e.Reason)
}

func (e *InvalidParametersError) Is(target error) bool {
	return target == ErrInvalidParameters
}

func invalid(field, reason string) error {
	return &InvalidParametersError{Field: field, Reason: reason}
}
