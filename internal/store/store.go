package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions, tracked in PRAGMA user_version:
//
//	0 - fresh database, schema.sql not yet applied
//	1 - baseline: revisions, continuities, versions + sequence index
const currentSchemaVersion = 1

// ErrNotFound is returned by reads when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Conflict records one continuity whose head moved past the sequence a
// session observed when it staged its change.
type Conflict struct {
	ContinuityID string
	BaseSequence int64 // head sequence the session observed
	HeadSequence int64 // head sequence at commit time
}

// ConflictError aborts a commit when any staged continuity's head has
// advanced since the session read it. The whole commit rolls back; the
// caller retries against the fresh head or gives up.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ids[i] = fmt.Sprintf("%s (base %d, head %d)", c.ContinuityID, c.BaseSequence, c.HeadSequence)
	}
	return fmt.Sprintf("commit conflict on %d continuit(ies): %s", len(e.Conflicts), strings.Join(ids, ", "))
}

// Store persists revision histories in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates or upgrades the database at path and returns a ready
// store. Idempotent: reopening an existing database re-applies pragmas
// and any pending migrations and changes nothing else.
//
// Connection configuration:
//   - WAL journal, so readers are never blocked by the writer
//   - synchronous NORMAL
//   - busy_timeout 5000ms
//   - foreign_keys ON (purge relies on the versions cascade)
//   - a single connection; SQLite allows one writer and the gap-free
//     sequence allocation in CommitRevision depends on it
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Nil-safe.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate brings user_version up to currentSchemaVersion, applying each
// step at most once.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version < 1 {
		// Databases created before the sequence index was part of
		// schema.sql. IF NOT EXISTS makes this a no-op otherwise.
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_versions_sequence
			ON versions(sequence)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma reads a pragma back and compares it to the expected
// value. Test support.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
