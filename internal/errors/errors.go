package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common error types for the taskboard client
var (
	// Session errors
	ErrNoSession     = errors.New("no authenticated session")
	ErrRefreshFailed = errors.New("token refresh failed")

	// Request errors
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrTransport    = errors.New("transport error")

	// Realtime errors
	ErrNotConnected = errors.New("realtime channel not connected")
	ErrAuthLost     = errors.New("realtime authentication rejected")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// ValidationError carries per-field messages produced before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty so callers can
// return it directly.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is errors.Join, re-exported so callers need a single errors import.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
