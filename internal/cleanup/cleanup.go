// Package cleanup drops ranked paths whose files or directories are gone.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tacogips/frecency/internal/store"
)

// DefaultWorkers bounds concurrent stat calls.
const DefaultWorkers = 8

// Store is the part of *store.DB that cleanup needs.
type Store interface {
	ListByScore(limit int) ([]store.Entry, error)
	RemovePaths(paths []string) error
}

var _ Store = (*store.DB)(nil)

// Missing returns the paths that no longer exist, in input order. Only a
// not-exist stat result counts as gone; any other stat error keeps the path
// and is logged.
func Missing(ctx context.Context, paths []string, workers int, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	gone := make([]bool, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			_, err := os.Stat(p)
			switch {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist):
				gone[i] = true
			default:
				logger.Warn("cleanup: stat failed, keeping path",
					slog.String("path", p),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for i, p := range paths {
		if gone[i] {
			out = append(out, p)
		}
	}
	return out, nil
}

// RemoveNotExists removes every ranked path that no longer exists and
// returns the removed paths.
func RemoveNotExists(ctx context.Context, s Store, workers int, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := s.ListByScore(0)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	gone, err := Missing(ctx, paths, workers, logger)
	if err != nil {
		return nil, err
	}
	if len(gone) == 0 {
		return nil, nil
	}

	if err := s.RemovePaths(gone); err != nil {
		return nil, err
	}
	logger.Info("removed missing paths", slog.Int("count", len(gone)))
	return gone, nil
}
