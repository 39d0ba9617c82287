package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - unknown product, customer, sale, shift or user.
	ErrNotFound = errors.New("not found")
	// ErrValidation - the request was rejected before anything was written.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate - a unique key (username, barcode) is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials - unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPersistence - a document could not be written to disk.
	ErrPersistence = errors.New("persistence failed")
	// ErrPartialFailure - the primary record was written but a follow-up
	// stock or debt write failed. Run Reconcile to see what diverged.
	ErrPartialFailure = errors.New("partially applied")

	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrValidation)
	ErrShiftAlreadyOpen  = fmt.Errorf("%w: shift already open", ErrValidation)
	ErrShiftClosed       = fmt.Errorf("%w: shift is closed", ErrValidation)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
