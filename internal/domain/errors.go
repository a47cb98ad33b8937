package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrDuplicateEdge signals an edge already exists for the ordered pair.
	// Callers treat it as a no-op, never a failure.
	ErrDuplicateEdge = errors.New("propagation edge already exists")

	// ErrNotFound signals a record lookup miss.
	ErrNotFound = errors.New("record not found")

	// ErrClaimLost signals a compare-and-set commit found the row's state
	// changed since it was claimed. Another worker won; skip the row.
	ErrClaimLost = errors.New("analysis claim lost to concurrent worker")
)

// ValidationError rejects malformed input before persistence. It is reported
// to the caller and never aborts an enclosing batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientStoreError wraps a store failure that is worth retrying with
// bounded backoff at the batch level.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error in %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// NewTransientStoreError wraps err as transient for the given operation.
func NewTransientStoreError(op string, err error) error {
	return &TransientStoreError{Op: op, Err: err}
}

// IsTransientStore reports whether err is a TransientStoreError.
func IsTransientStore(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}

// ModelUnavailableError signals an enrichment resource for a language failed
// to load or timed out. The affected fields are left unset and the pipeline
// continues; non-fatal by contract.
type ModelUnavailableError struct {
	Language string
	Err      error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable for language %q: %v", e.Language, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// IsModelUnavailable reports whether err is a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var me *ModelUnavailableError
	return errors.As(err, &me)
}
