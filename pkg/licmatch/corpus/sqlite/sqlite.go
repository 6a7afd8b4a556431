package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

// sqliteStore implements corpus.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite corpus database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (corpus.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so the ingestion job can write while matchers read
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS licenses (
	id TEXT PRIMARY KEY,
	text BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Get returns the compressed text for a license ID
func (s *sqliteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT text FROM licenses WHERE id=?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("license %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Keys lists all license IDs
func (s *sqliteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM licenses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		keys = append(keys, id)
	}
	return keys, rows.Err()
}

// Put inserts or updates one license
func (s *sqliteStore) Put(ctx context.Context, id string, compressed []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO licenses (id, text, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET text=excluded.text, updated_at=excluded.updated_at;
`, id, compressed, now())
	return err
}

// Replace swaps the full corpus in a single transaction.
func (s *sqliteStore) Replace(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM licenses`); err != nil {
		return err
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO licenses (id, text, updated_at) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		ts := now()
		for id, data := range entries {
			if _, err := stmt.ExecContext(ctx, id, data, ts); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
