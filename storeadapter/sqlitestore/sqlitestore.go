// Package sqlitestore persists ratchet.Session documents in a SQLite
// database, keyed by an opaque session ID the caller assigns. It is a
// thin wrapper around Session.Serialize/Deserialize: it holds no
// session state of its own and performs no cryptography.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ratchetlabs/doubleratchet"
)

// ErrNotFound is returned by Load when no document is stored under
// the given session ID.
var ErrNotFound = errors.New("sqlitestore: session not found")

// Store persists ratchet session documents in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	document BLOB NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save serializes session and upserts it under id.
func (s *Store) Save(id string, session *ratchet.Session) error {
	doc, err := session.Serialize()
	if err != nil {
		return fmt.Errorf("sqlitestore: serializing session %s: %w", id, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, document) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document`,
		id, doc,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: saving session %s: %w", id, err)
	}
	return nil
}

// Load fetches the document stored under id and deserializes it
// against cfg. It returns ErrNotFound if no such document exists.
func (s *Store) Load(id string, cfg ratchet.Config) (*ratchet.Session, error) {
	var doc []byte
	err := s.db.QueryRow(`SELECT document FROM sessions WHERE id = ?`, id).Scan(&doc)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("sqlitestore: loading session %s: %w", id, err)
	}
	session, err := ratchet.Deserialize(doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: deserializing session %s: %w", id, err)
	}
	return session, nil
}

// Delete removes the document stored under id, if any.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlitestore: deleting session %s: %w", id, err)
	}
	return nil
}
