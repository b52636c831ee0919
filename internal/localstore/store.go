package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Collection names persisted by the registry.
const (
	CollectionOwners   = "owners"
	CollectionFiles    = "files"
	CollectionNotices  = "notices"
	CollectionMessages = "messages"
)

// ErrNotFound is returned by Get and GetSession when no snapshot has
// been persisted under the requested name.
var ErrNotFound = errors.New("localstore: not found")

// Store is a SQLite-backed snapshot store of named collections. Each
// Put replaces the whole snapshot for a name; SQLite makes the
// single-row replace atomic, which is the only write granularity the
// registry needs. Snapshots are namespaced by a scope identifier so a
// storage-layout change can bump the scope without migrating data.
type Store struct {
	db    *sql.DB
	scope string
}

// Open opens (creating if necessary) the SQLite database at path and
// prepares the schema. Use ":memory:" for tests.
func Open(path, scope string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("Open: opening database: %w", err)
	}

	s := &Store{db: db, scope: scope}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: migrating schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		scope      TEXT NOT NULL,
		name       TEXT NOT NULL,
		data       TEXT NOT NULL,
		updated_ts TEXT NOT NULL,
		PRIMARY KEY (scope, name)
	);

	CREATE TABLE IF NOT EXISTS session_marker (
		scope      TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		updated_ts TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Put persists a collection snapshot under a logical name, replacing
// any prior value.
func (s *Store) Put(ctx context.Context, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("Put: marshaling %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO collections (scope, name, data, updated_ts)
		VALUES (?, ?, ?, ?)
	`, s.scope, name, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("Put: writing %q: %w", name, err)
	}
	return nil
}

// Get loads the last persisted snapshot for name into out. Returns
// ErrNotFound when nothing has been persisted under that name.
func (s *Store) Get(ctx context.Context, name string, out interface{}) error {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM collections WHERE scope = ? AND name = ?
	`, s.scope, name).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("Get: reading %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("Get: unmarshaling %q: %w", name, err)
	}
	return nil
}

// Clear removes every snapshot and the session marker in this scope.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE scope = ?`, s.scope); err != nil {
		return fmt.Errorf("Clear: deleting collections: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_marker WHERE scope = ?`, s.scope); err != nil {
		return fmt.Errorf("Clear: deleting session marker: %w", err)
	}
	return nil
}

// PutSession records the authenticated owner's identifier so the
// active identity can be fast-restored at bootstrap.
func (s *Store) PutSession(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO session_marker (scope, owner_id, updated_ts)
		VALUES (?, ?, ?)
	`, s.scope, ownerID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("PutSession: %w", err)
	}
	return nil
}

// GetSession returns the recorded owner identifier, or ErrNotFound
// when no session marker exists.
func (s *Store) GetSession(ctx context.Context) (string, error) {
	var ownerID string
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id FROM session_marker WHERE scope = ?
	`, s.scope).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("GetSession: %w", err)
	}
	return ownerID, nil
}

// ClearSession removes the session marker. Called on logout.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_marker WHERE scope = ?`, s.scope); err != nil {
		return fmt.Errorf("ClearSession: %w", err)
	}
	return nil
}
