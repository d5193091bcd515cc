// Package storage holds the persisted collections and the stock movement
// engine over them. The inventory collection and the transaction ledger are
// whole JSON records in the key-value store; every mutation is a
// read-modify-write of the full collection inside one kv transaction.
package storage

import (
	"encoding/json"
	"fmt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/kv"
	"pharmapos/m/internal/seed"
)

const (
	keyInventory = "pharma_inventory_v1"
	keyLedger    = "pharma_transactions_v1"
)

// Inventory owns the canonical item collection.
type Inventory struct {
	store *kv.Store
}

// NewInventory constructs an Inventory over the store.
func NewInventory(store *kv.Store) *Inventory {
	return &Inventory{store: store}
}

// List returns the full collection in storage order. On the first call
// against an empty store it persists the demo catalog and returns that.
func (inv *Inventory) List() ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := inv.store.Update(func(tx kv.Tx) error {
		var err error
		items, err = loadOrSeedItems(tx)
		return err
	})
	return items, err
}

// Upsert replaces the item with a matching id in place, or appends it when
// the id is new. Returns the stored item.
func (inv *Inventory) Upsert(item domain.InventoryItem) (domain.InventoryItem, error) {
	err := inv.store.Update(func(tx kv.Tx) error {
		items, err := loadOrSeedItems(tx)
		if err != nil {
			return err
		}
		replaced := false
		for i := range items {
			if items[i].ID == item.ID {
				items[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, item)
		}
		return saveItems(tx, items)
	})
	return item, err
}

// Remove filters the item with the given id out of the collection. Removing
// an absent id is a no-op, not an error. Past ledger entries keep their
// name/id snapshots.
func (inv *Inventory) Remove(id string) error {
	return inv.store.Update(func(tx kv.Tx) error {
		items, err := loadOrSeedItems(tx)
		if err != nil {
			return err
		}
		kept := items[:0]
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		return saveItems(tx, kept)
	})
}

func loadOrSeedItems(tx kv.Tx) ([]domain.InventoryItem, error) {
	raw, ok, err := tx.Get(keyInventory)
	if err != nil {
		return nil, err
	}
	if !ok {
		items := seed.Catalog()
		if err := saveItems(tx, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var items []domain.InventoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode inventory collection: %w", err)
	}
	return items, nil
}

func saveItems(tx kv.Tx, items []domain.InventoryItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode inventory collection: %w", err)
	}
	return tx.Set(keyInventory, raw)
}
