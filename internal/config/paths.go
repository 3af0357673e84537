package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrDBPathNotExists = errors.New("db path does not exist")
	ErrInvalidDBPath   = errors.New("db path is not a regular file")
)

// DefaultDBPath returns the default database path:
// ~/.local/share/frecency/db/frecency.sqlite3
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "frecency", "db", "frecency.sqlite3"), nil
}

// ResolveDBPath picks the database file. An explicit path must name an
// existing regular file; an empty one falls back to DefaultDBPath.
func ResolveDBPath(explicit string) (string, error) {
	if explicit == "" {
		return DefaultDBPath()
	}

	info, err := os.Stat(explicit)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrDBPathNotExists, explicit)
	}
	if err != nil {
		return "", fmt.Errorf("stat db path: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrInvalidDBPath, explicit)
	}
	return explicit, nil
}

// EnsureDBDir creates the parent directory of path if it is missing.
func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}
