package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"pharmapos/m/domain"
	"pharmapos/m/internal/kv"
	"pharmapos/m/internal/migrations"
)

func newTestStore(t *testing.T) *kv.Store {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	migrations.Run(db)
	return kv.New(db)
}

// newTestEngine returns an engine with a frozen clock and sequential ids so
// ledger entries are predictable.
func newTestEngine(store *kv.Store, at time.Time) *Engine {
	engine := NewEngine(store)
	engine.now = func() time.Time { return at }
	seq := 0
	engine.newID = func() string {
		seq++
		return fmt.Sprintf("tx-%d", seq)
	}
	return engine
}

func testTime(t *testing.T) time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, "2026-08-27T10:30:00Z")
	if err != nil {
		t.Fatalf("parse test time: %v", err)
	}
	return at
}

func mustUpsert(t *testing.T, inv *Inventory, item domain.InventoryItem) {
	t.Helper()
	if _, err := inv.Upsert(item); err != nil {
		t.Fatalf("Upsert(%s): %v", item.ID, err)
	}
}

func findItem(t *testing.T, inv *Inventory, id string) domain.InventoryItem {
	t.Helper()
	items, err := inv.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %s not in collection", id)
	return domain.InventoryItem{}
}
