package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pharmapos/m/domain"
	"pharmapos/m/internal/kv"
)

// Engine applies stock movements. It holds no state of its own: each
// operation reads the item collection and the ledger, validates fully, and
// commits the mutated pair inside one kv transaction. A rejected operation
// leaves stored state untouched.
type Engine struct {
	store *kv.Store
	now   func() time.Time
	newID func() string
}

// NewEngine constructs an Engine over the store.
func NewEngine(store *kv.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// AdjustStock applies a single-item restock (IN) or dispense (OUT).
// Quantity must be positive; that is the caller's contract. An OUT larger
// than the on-hand quantity fails with *InsufficientStockError and an
// unknown id fails with ErrItemNotFound, in both cases without touching
// stored state.
func (e *Engine) AdjustStock(itemID string, quantity int64, direction domain.MovementType, notes string) error {
	if direction != domain.MovementIn && direction != domain.MovementOut {
		return fmt.Errorf("invalid movement direction %q", direction)
	}
	return e.store.Update(func(tx kv.Tx) error {
		items, err := loadOrSeedItems(tx)
		if err != nil {
			return err
		}
		idx := -1
		for i := range items {
			if items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		item := items[idx]

		if direction == domain.MovementIn {
			item.Quantity += quantity
		} else {
			if item.Quantity < quantity {
				return &InsufficientStockError{
					ItemID:    item.ID,
					ItemName:  item.Name,
					Requested: quantity,
					Available: item.Quantity,
				}
			}
			item.Quantity -= quantity
		}
		items[idx] = item

		if err := saveItems(tx, items); err != nil {
			return err
		}
		return prependEntries(tx, domain.Transaction{
			ID:       e.newID(),
			ItemID:   item.ID,
			ItemName: item.Name,
			Type:     direction,
			Quantity: quantity,
			Date:     e.now().UTC(),
			Notes:    notes,
		})
	})
}

// ProcessSale commits a multi-line sale all-or-nothing. Validation resolves
// every line against the current snapshot before anything is mutated; lines
// referencing the same item are aggregated so a duplicated id cannot pass
// twice against the same pre-sale quantity. On success the mutated item
// collection and the batch of SALE entries (one per cart line, sharing one
// commit timestamp) are written together.
func (e *Engine) ProcessSale(cart []domain.CartLine) error {
	if len(cart) == 0 {
		return nil
	}
	return e.store.Update(func(tx kv.Tx) error {
		items, err := loadOrSeedItems(tx)
		if err != nil {
			return err
		}
		index := make(map[string]int, len(items))
		for i := range items {
			index[items[i].ID] = i
		}

		// Validation phase: whole cart or nothing.
		requested := make(map[string]int64, len(cart))
		for _, line := range cart {
			i, ok := index[line.ItemID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrItemNotFound, line.ItemID)
			}
			requested[line.ItemID] += line.Quantity
			if requested[line.ItemID] > items[i].Quantity {
				return &InsufficientStockError{
					ItemID:    items[i].ID,
					ItemName:  items[i].Name,
					Requested: requested[line.ItemID],
					Available: items[i].Quantity,
				}
			}
		}

		// Execution phase: decrement the snapshot and build one SALE entry
		// per line, priced at the quantity's unit price at commit time.
		committedAt := e.now().UTC()
		entries := make([]domain.Transaction, 0, len(cart))
		for _, line := range cart {
			i := index[line.ItemID]
			total := items[i].Price * float64(line.Quantity)
			items[i].Quantity -= line.Quantity
			entries = append(entries, domain.Transaction{
				ID:         e.newID(),
				ItemID:     items[i].ID,
				ItemName:   items[i].Name,
				Type:       domain.MovementSale,
				Quantity:   line.Quantity,
				Date:       committedAt,
				Notes:      "Point of Sale Transaction",
				TotalPrice: &total,
			})
		}

		// Commit phase: one collection write, one ledger batch write.
		if err := saveItems(tx, items); err != nil {
			return err
		}
		return prependEntries(tx, entries...)
	})
}
