// Package boltstore persists ratchet.Session documents in a bbolt
// key/value file, keyed by an opaque session ID the caller assigns.
// Like sqlitestore, it is a thin wrapper around
// Session.Serialize/Deserialize and holds no session state of its own.
package boltstore

import (
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/ratchetlabs/doubleratchet"
)

// ErrNotFound is returned by Load when no document is stored under
// the given session ID.
var ErrNotFound = errors.New("boltstore: session not found")

var sessionsBucket = []byte("sessions")

// Store persists ratchet session documents in a bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database at path and
// ensures its top-level bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: creating bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save serializes session and stores it under id, overwriting any
// prior document.
func (s *Store) Save(id string, session *ratchet.Session) error {
	doc, err := session.Serialize()
	if err != nil {
		return fmt.Errorf("boltstore: serializing session %s: %w", id, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(id), doc)
	})
	if err != nil {
		return fmt.Errorf("boltstore: saving session %s: %w", id, err)
	}
	return nil
}

// Load fetches the document stored under id and deserializes it
// against cfg. It returns ErrNotFound if no such document exists.
func (s *Store) Load(id string, cfg ratchet.Config) (*ratchet.Session, error) {
	var doc []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		doc = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("boltstore: loading session %s: %w", id, err)
	}
	session, err := ratchet.Deserialize(doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("boltstore: deserializing session %s: %w", id, err)
	}
	return session, nil
}

// Delete removes the document stored under id, if any.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("boltstore: deleting session %s: %w", id, err)
	}
	return nil
}
