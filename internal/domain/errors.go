// Package domain contains the quote collection's entities, rules and errors.
// Domain errors describe business-level failures. Adapters translate them
// into HTTP statuses or CLI exit messages.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested quote or value does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an incoming record clashes with stored state.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates user input failed a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrFormat indicates a payload did not have the expected shape.
	ErrFormat = errors.New("invalid format")

	// ErrUnavailable indicates the remote quote source could not be reached.
	ErrUnavailable = errors.New("unavailable")

	// ErrCorrupt indicates persisted data could not be decoded.
	ErrCorrupt = errors.New("storage corrupt")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports ids that already exist in the collection.
type ConflictError struct {
	Entity string
	IDs    []int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %d duplicate id(s) %v", e.Entity, len(e.IDs), e.IDs)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error listing the clashing ids.
func NewConflictError(entity string, ids []int64) error {
	return &ConflictError{Entity: entity, IDs: ids}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// FormatError is returned when an import payload or remote body has the
// wrong shape. Index is the offending array element, or -1 for the payload
// as a whole.
type FormatError struct {
	Source string
	Index  int
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid %s format: %s", e.Source, e.Reason)
	if e.Index >= 0 {
		msg = fmt.Sprintf("invalid %s format at element %d: %s", e.Source, e.Index, e.Reason)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// NewFormatError creates a format error about the payload as a whole.
func NewFormatError(source, reason string, cause error) error {
	return &FormatError{Source: source, Index: -1, Reason: reason, Err: cause}
}

// NewElementFormatError creates a format error about one array element.
func NewElementFormatError(source string, index int, reason string) error {
	return &FormatError{Source: source, Index: index, Reason: reason}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// CorruptionError wraps a decode failure of a persisted key.
type CorruptionError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	return fmt.Sprintf("stored value %q is corrupt: %v", e.Key, e.Err)
}

// Is matches ErrCorrupt while Unwrap exposes the decode error.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupt
}

// Unwrap returns the underlying decode error.
func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// NewCorruptionError creates a corruption error for a storage key.
func NewCorruptionError(key string, cause error) error {
	return &CorruptionError{Key: key, Err: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFormat checks if an error is a format error.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsCorrupt checks if an error is a storage corruption error.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
