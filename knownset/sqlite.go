package knownset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pevans/kufarwatch/listing"
)

// SQLiteStore keeps the known set in a SQLite table.
type SQLiteStore struct {
	db       *sql.DB
	readOnly bool
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewReadOnlySQLiteStore opens the database at dbPath without creating it or
// its schema. A missing database loads as StatusAbsent.
func NewReadOnlySQLiteStore(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SQLiteStore{}, nil
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+(&url.URL{Path: dbPath}).EscapedPath()+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteStore{db: db, readOnly: true}, nil
}

// initSchema creates the known_listings table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS known_listings (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every known listing. An empty table is StatusAbsent; query
// failures are StatusCorrupt.
func (s *SQLiteStore) Load(ctx context.Context) LoadResult {
	if s.db == nil {
		return absentResult()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, title, url FROM known_listings")
	if err != nil && s.readOnly && strings.Contains(err.Error(), "no such table") {
		return absentResult()
	}
	if err != nil {
		return corruptResult(fmt.Errorf("failed to query known listings: %w", err))
	}
	defer rows.Close()

	set := listing.Set{}
	for rows.Next() {
		var l listing.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.URL); err != nil {
			return corruptResult(fmt.Errorf("failed to scan known listing: %w", err))
		}
		set.Add(l)
	}
	if err := rows.Err(); err != nil {
		return corruptResult(fmt.Errorf("failed to read known listings: %w", err))
	}

	if len(set) == 0 {
		return absentResult()
	}
	return okResult(set)
}

// Save replaces the table contents in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, set listing.Set) error {
	if s.readOnly || s.db == nil {
		return ErrReadOnly
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM known_listings"); err != nil {
		return fmt.Errorf("failed to clear known listings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO known_listings (id, title, url) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, l := range set {
		if _, err := stmt.ExecContext(ctx, id, l.Title, l.URL); err != nil {
			return fmt.Errorf("failed to insert listing %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit known listings: %w", err)
	}

	return nil
}
