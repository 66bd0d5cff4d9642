// Package journal persists a history of sync attempts in SQLite. The
// journal is advisory only: the snapshot directory layout remains the
// authoritative record of installed versions, and journal failures never
// fail a sync.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"pullsnap-go/internal/journal/migrations"
	"pullsnap-go/internal/pullsnap"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLite is a Journal backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating and migrating if needed) the journal database at
// path. Use ":memory:" for an ephemeral journal in tests.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring journal database: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal database: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database connection.
func (j *SQLite) Close() error {
	return j.db.Close()
}

// RecordSync appends one sync record.
func (j *SQLite) RecordSync(rec pullsnap.SyncRecord) error {
	_, err := j.db.Exec(
		`INSERT INTO sync_records (target, version, started_at, duration_ms, attempts, status, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Target, rec.Version, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Attempts, rec.Status, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting sync record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first, optionally filtered by
// target name. limit <= 0 means no limit.
func (j *SQLite) List(target string, limit int) ([]pullsnap.SyncRecord, error) {
	query := `SELECT id, target, version, started_at, duration_ms, attempts, status, detail
	          FROM sync_records`
	var args []any
	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync records: %w", err)
	}
	defer rows.Close()

	var records []pullsnap.SyncRecord
	for rows.Next() {
		var rec pullsnap.SyncRecord
		var startedAt int64
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Target, &rec.Version, &startedAt,
			&durationMS, &rec.Attempts, &rec.Status, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scanning sync record: %w", err)
		}
		rec.StartedAt = time.Unix(startedAt, 0).UTC()
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sync records: %w", err)
	}
	return records, nil
}
