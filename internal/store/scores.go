package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tacogips/frecency/internal/engine"
)

// Entry is one ranked path.
type Entry struct {
	Path  string
	Score float64
	// LastVisit is the newest logged visit in ms since the epoch. Only set by
	// ListByLastVisit.
	LastVisit int64
}

var errScoreRowMissing = errors.New("visits exist but score row is missing")

// RecordVisit logs a visit to path at the given time (ms since the epoch),
// rescores path and trims its visit log, all in one transaction.
func (db *DB) RecordVisit(path string, at int64) error {
	tx, err := db.Begin()
	if err != nil {
		return wrapErr("record visit: begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.Query(`
		SELECT rowid, visit_in_milli_sec FROM visits
		WHERE path = ?
		ORDER BY visit_in_milli_sec ASC, rowid ASC
	`, path)
	if err != nil {
		return wrapErr("record visit: fetch visits", err)
	}
	var rowIDs, visits []int64
	for rows.Next() {
		var id, v int64
		if err := rows.Scan(&id, &v); err != nil {
			rows.Close()
			return wrapErr("record visit: scan visit", err)
		}
		rowIDs = append(rowIDs, id)
		visits = append(visits, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapErr("record visit: fetch visits", err)
	}

	plan := engine.PlanUpdate(visits, at, db.maxVisitLogSize)

	if plan.FirstVisit {
		if _, err := tx.Exec(`INSERT INTO scores (path, score) VALUES (?, ?)`, path, plan.Score); err != nil {
			return wrapErr("record visit: insert score", err)
		}
	} else {
		res, err := tx.Exec(`UPDATE scores SET score = ? WHERE path = ?`, plan.Score, path)
		if err != nil {
			return wrapErr("record visit: update score", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &StorageError{Op: "record visit: update score", Err: errScoreRowMissing}
		}
	}

	if _, err := tx.Exec(`INSERT INTO visits (path, visit_in_milli_sec) VALUES (?, ?)`, path, at); err != nil {
		return wrapErr("record visit: insert visit", err)
	}

	// Evict holds the oldest entries of the prior log, which line up with the
	// first rowIDs. Deleting by rowid keeps duplicates of an evicted timestamp
	// (including the visit just inserted) intact.
	if n := len(plan.Evict); n > 0 {
		if err := deleteRowIDs(tx, rowIDs[:n]); err != nil {
			return err
		}
		db.logger.Debug("evicted visits",
			slog.String("path", path),
			slog.Int("count", n),
			slog.Int64("oldest", plan.Evict[0]))
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("record visit: commit", err)
	}
	return nil
}

func deleteRowIDs(tx *sql.Tx, ids []int64) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM visits WHERE rowid IN (%s)`, placeholders)
	if _, err := tx.Exec(query, args...); err != nil {
		return wrapErr("record visit: evict visits", err)
	}
	return nil
}

// ListByScore returns paths ordered by score, highest first. Equal scores are
// ordered by path. limit <= 0 means no limit.
func (db *DB) ListByScore(limit int) ([]Entry, error) {
	query := `SELECT path, score FROM scores ORDER BY score DESC, path ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("list by score", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Score); err != nil {
			return nil, wrapErr("scan score", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list by score", err)
	}
	return entries, nil
}

// ListByLastVisit returns paths ordered by their newest logged visit, most
// recent first. limit <= 0 means no limit.
func (db *DB) ListByLastVisit(limit int) ([]Entry, error) {
	query := `
		SELECT s.path, s.score, MAX(v.visit_in_milli_sec) AS last_visit
		FROM scores s
		JOIN visits v ON v.path = s.path
		GROUP BY s.path, s.score
		ORDER BY last_visit DESC, s.path ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("list by last visit", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Score, &e.LastVisit); err != nil {
			return nil, wrapErr("scan last visit", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list by last visit", err)
	}
	return entries, nil
}

// FetchVisits returns the logged visits for path, oldest first. A path with
// no visits yields an empty slice.
func (db *DB) FetchVisits(path string) ([]int64, error) {
	rows, err := db.Query(`
		SELECT visit_in_milli_sec FROM visits
		WHERE path = ?
		ORDER BY visit_in_milli_sec ASC, rowid ASC
	`, path)
	if err != nil {
		return nil, wrapErr("fetch visits", err)
	}
	defer rows.Close()

	visits := []int64{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, wrapErr("scan visit", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("fetch visits", err)
	}
	return visits, nil
}

// RemovePaths deletes the score and every visit of each path in one
// transaction. Unknown paths are ignored.
func (db *DB) RemovePaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return wrapErr("remove paths: begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	delVisits, err := tx.Prepare(`DELETE FROM visits WHERE path = ?`)
	if err != nil {
		return wrapErr("remove paths: prepare visits delete", err)
	}
	defer delVisits.Close()

	delScore, err := tx.Prepare(`DELETE FROM scores WHERE path = ?`)
	if err != nil {
		return wrapErr("remove paths: prepare scores delete", err)
	}
	defer delScore.Close()

	for _, p := range paths {
		if _, err := delVisits.Exec(p); err != nil {
			return wrapErr(fmt.Sprintf("remove paths: delete visits of %s", p), err)
		}
		if _, err := delScore.Exec(p); err != nil {
			return wrapErr(fmt.Sprintf("remove paths: delete score of %s", p), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("remove paths: commit", err)
	}
	db.logger.Debug("removed paths", slog.Int("count", len(paths)))
	return nil
}
