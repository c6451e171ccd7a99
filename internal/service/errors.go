package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is wrapped by every ValidationError
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotReady is returned while startup has not completed
	ErrNotReady = errors.New("service not ready")
)

// ValidationError describes a rejected caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
