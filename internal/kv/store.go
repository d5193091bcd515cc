// Package kv is a small key-value adapter over SQLite. Collections are stored
// as whole JSON records under fixed keys; Update gives callers a transactional
// view so writes spanning more than one key commit or fail together.
package kv

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tx is the read/write surface available both directly and inside Update.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Store persists keyed byte records in the kv table.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Get returns the record under key; the bool reports whether it exists.
func (s *Store) Get(key string) ([]byte, bool, error) {
	return get(s.db, key)
}

// Set writes the record under key, replacing any existing value.
func (s *Store) Set(key string, value []byte) error {
	return set(s.db, key, value)
}

// Delete removes the record under key; removing an absent key is not an error.
func (s *Store) Delete(key string) error {
	return del(s.db, key)
}

// Update runs fn against a transactional view. Every Set and Delete made
// through the view becomes visible atomically when fn returns nil; any error
// rolls the whole batch back.
func (s *Store) Update(fn func(tx Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin kv update: %w", err)
	}
	if err := fn(txView{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit kv update: %w", err)
	}
	return nil
}

type txView struct {
	tx *sqlx.Tx
}

func (v txView) Get(key string) ([]byte, bool, error) { return get(v.tx, key) }
func (v txView) Set(key string, value []byte) error   { return set(v.tx, key, value) }
func (v txView) Delete(key string) error              { return del(v.tx, key) }

func get(q sqlx.Queryer, key string) ([]byte, bool, error) {
	var value []byte
	err := sqlx.Get(q, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

func set(e sqlx.Execer, key string, value []byte) error {
	_, err := e.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func del(e sqlx.Execer, key string) error {
	if _, err := e.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
