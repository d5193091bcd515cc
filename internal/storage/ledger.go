package storage

import (
	"encoding/json"
	"fmt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/kv"
)

// Ledger owns the append-only movement log, stored most-recent-first.
type Ledger struct {
	store *kv.Store
}

// NewLedger constructs a Ledger over the store.
func NewLedger(store *kv.Store) *Ledger {
	return &Ledger{store: store}
}

// List returns all entries, most recent first. An empty ledger yields an
// empty slice.
func (l *Ledger) List() ([]domain.Transaction, error) {
	return loadEntries(l.store)
}

// Append prepends one entry to the stored sequence.
func (l *Ledger) Append(entry domain.Transaction) error {
	return l.store.Update(func(tx kv.Tx) error {
		return prependEntries(tx, entry)
	})
}

func loadEntries(tx kv.Tx) ([]domain.Transaction, error) {
	raw, ok, err := tx.Get(keyLedger)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Transaction{}, nil
	}
	var entries []domain.Transaction
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode transaction ledger: %w", err)
	}
	return entries, nil
}

// prependEntries writes new entries ahead of the existing log in one batch,
// preserving the order they were generated in.
func prependEntries(tx kv.Tx, entries ...domain.Transaction) error {
	existing, err := loadEntries(tx)
	if err != nil {
		return err
	}
	merged := make([]domain.Transaction, 0, len(entries)+len(existing))
	merged = append(merged, entries...)
	merged = append(merged, existing...)
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode transaction ledger: %w", err)
	}
	return tx.Set(keyLedger, raw)
}
