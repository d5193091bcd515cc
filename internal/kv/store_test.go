package kv

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("create kv table: %v", err)
	}
	return New(db)
}

func TestSetGetDelete(t *testing.T) {
	store := newTestStore(t)

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := store.Set("k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get("k")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("Get(k) = %q ok=%v err=%v, want v1", got, ok, err)
	}

	// Set replaces.
	if err := store.Set("k", []byte("v2")); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	got, _, _ = store.Get("k")
	if string(got) != "v2" {
		t.Fatalf("Get after replace = %q, want v2", got)
	}

	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("key still present after Delete")
	}

	// Deleting an absent key is not an error.
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestUpdateCommitsAllKeysTogether(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(func(tx Tx) error {
		if err := tx.Set("a", []byte("1")); err != nil {
			return err
		}
		return tx.Set("b", []byte("2"))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	for _, key := range []string{"a", "b"} {
		if _, ok, _ := store.Get(key); !ok {
			t.Fatalf("key %s missing after committed Update", key)
		}
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set("a", []byte("before")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	boom := errors.New("boom")
	err := store.Update(func(tx Tx) error {
		if err := tx.Set("a", []byte("after")); err != nil {
			return err
		}
		if err := tx.Set("b", []byte("new")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}

	got, _, _ := store.Get("a")
	if string(got) != "before" {
		t.Fatalf("a = %q after rollback, want before", got)
	}
	if _, ok, _ := store.Get("b"); ok {
		t.Fatal("b exists after rollback")
	}
}

func TestUpdateReadsItsOwnWrites(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(func(tx Tx) error {
		if err := tx.Set("k", []byte("v")); err != nil {
			return err
		}
		got, ok, err := tx.Get("k")
		if err != nil {
			return err
		}
		if !ok || string(got) != "v" {
			t.Fatalf("tx.Get = %q ok=%v, want v", got, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}
