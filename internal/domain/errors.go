package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized means the caller is anonymous where an identity is required.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the caller is known but the action is not permitted.
	ErrForbidden = errors.New("permission denied")
)

// FieldErrors carries field-level validation failures.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err returns nil when no field failed.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, msg string) error {
	return FieldErrors{field: msg}
}

// ConflictError is a unique-constraint violation on a known field.
// It matches ErrAlreadyExists under errors.Is.
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	return "already exists: " + e.Field
}

func (e ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}
