// Package storage persists ledger snapshots to SQLite.
//
// The ledger itself is in-memory and append-only; this package gives it
// durability across restarts. A snapshot replaces the whole table in one
// transaction, and Load returns records in their original creation order.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/ashita-ai/keifu/internal/model"
)

// SnapshotStore writes and reads full-ledger snapshots.
type SnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the snapshot database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent snapshot and load.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS decision_records (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			id      TEXT NOT NULL,
			payload TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}

	return &SnapshotStore{db: db, logger: logger}, nil
}

// Save replaces the stored snapshot with the given records. The records slice
// must be in creation order; Load preserves it.
func (s *SnapshotStore) Save(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM decision_records`); err != nil {
		return fmt.Errorf("storage: clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO decision_records (id, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("storage: marshal %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, string(payload)); err != nil {
			return fmt.Errorf("storage: insert %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot in creation order. Rows whose payload no
// longer parses are skipped with a warning rather than failing the whole load.
func (s *SnapshotStore) Load(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM decision_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage: query snapshot: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			s.logger.Warn("storage: skipping malformed snapshot row", "id", id, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate snapshot: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
