package store

import (
	"fmt"
	"log/slog"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// IF NOT EXISTS everywhere: databases written by earlier releases already
// have the tables but no schema_versions row.
var migrations = []migration{
	{
		Version:     1,
		Description: "scores and visits",
		SQL: `
CREATE TABLE IF NOT EXISTS scores (
    path  TEXT PRIMARY KEY,
    score REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS visits (
    path               TEXT,
    visit_in_milli_sec INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS score_in_scores          ON scores(score);
CREATE INDEX IF NOT EXISTS path_in_visits           ON visits(path);
CREATE INDEX IF NOT EXISTS path_and_visit_in_visits ON visits(path, visit_in_milli_sec);
`,
	},
}

// CreateTables creates the tables and indexes if absent. Safe to call repeatedly.
func (db *DB) CreateTables() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return wrapErr("create schema_versions", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return wrapErr(fmt.Sprintf("check migration %d", m.Version), err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return wrapErr(fmt.Sprintf("begin migration %d", m.Version), err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return wrapErr(fmt.Sprintf("migration %d (%s)", m.Version, m.Description), err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return wrapErr(fmt.Sprintf("record migration %d", m.Version), err)
		}

		if err := tx.Commit(); err != nil {
			return wrapErr(fmt.Sprintf("commit migration %d", m.Version), err)
		}
		db.logger.Debug("applied migration",
			slog.Int("version", m.Version),
			slog.String("description", m.Description))
	}

	return nil
}

// DropTables removes every table and index CreateTables makes.
func (db *DB) DropTables() error {
	_, err := db.Exec(`
		DROP INDEX IF EXISTS score_in_scores;
		DROP INDEX IF EXISTS path_in_visits;
		DROP INDEX IF EXISTS path_and_visit_in_visits;

		DROP TABLE IF EXISTS scores;
		DROP TABLE IF EXISTS visits;
		DROP TABLE IF EXISTS schema_versions;
	`)
	if err != nil {
		return wrapErr("drop tables", err)
	}
	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, wrapErr("schema version", err)
	}
	return version, nil
}
