package store

import (
	"errors"
)

// WithSchema runs fn and, if it failed only because the tables do not exist
// yet, creates them and runs fn exactly once more. The second result is
// returned as is, so a repeated ErrSchemaMissing is fatal to the caller.
func WithSchema(db *DB, fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrSchemaMissing) {
		return err
	}

	db.logger.Debug("schema missing, creating tables", "path", db.Path)
	if err := db.CreateTables(); err != nil {
		return err
	}
	return fn()
}
