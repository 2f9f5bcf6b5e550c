package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Callers match them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidGrant   = errors.New("invalid grant")
	ErrAlreadyGranted = errors.New("access already granted")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
)

// ValidationError names the first invalid field of a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// DeleteResult reports the outcome of a delete. Deleting something that is
// already gone is not an error; Deleted is false in that case.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
	// CounterpartDeleted is set when the linked transaction or event was
	// removed along with the requested row.
	CounterpartDeleted bool `json:"counterpartDeleted"`
}
