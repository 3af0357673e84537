package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration reports invalid construction parameters. Never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrSchemaMissing reports a query against tables that do not exist yet.
	// Callers recover with WithSchema.
	ErrSchemaMissing = errors.New("schema missing")
)

// StorageError wraps any other failure from the SQLite driver with the
// operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// wrapErr classifies a driver error. Missing tables become ErrSchemaMissing,
// everything else a *StorageError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNoSuchTable(err) {
		return fmt.Errorf("%s: %w (%v)", op, ErrSchemaMissing, err)
	}
	return &StorageError{Op: op, Err: err}
}

// isNoSuchTable matches SQLite's "no such table: x" message. The driver
// reports it as a generic SQLITE_ERROR, so the code alone is not enough.
func isNoSuchTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
