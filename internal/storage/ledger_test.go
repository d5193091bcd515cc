package storage

import (
	"testing"
	"time"

	"pharmapos/m/domain"
)

func TestLedgerListEmpty(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedger(store)

	entries, err := ledger.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh ledger has %d entries, want 0", len(entries))
	}
}

func TestLedgerAppendPrepends(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedger(store)
	at := testTime(t)

	first := domain.Transaction{
		ID: "tx-1", ItemID: "1", ItemName: "Amoxicillin 500mg",
		Type: domain.MovementIn, Quantity: 10, Date: at, Notes: "restock",
	}
	second := domain.Transaction{
		ID: "tx-2", ItemID: "1", ItemName: "Amoxicillin 500mg",
		Type: domain.MovementOut, Quantity: 4, Date: at.Add(time.Minute), Notes: "dispense",
	}

	if err := ledger.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := ledger.Append(second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := ledger.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger has %d entries, want 2", len(entries))
	}
	if entries[0].ID != "tx-2" || entries[1].ID != "tx-1" {
		t.Fatalf("order = [%s, %s], want most recent first", entries[0].ID, entries[1].ID)
	}
}
