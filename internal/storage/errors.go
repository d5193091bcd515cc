package storage

import (
	"errors"
	"fmt"
)

// ErrItemNotFound reports a movement or sale referencing an unknown item id.
var ErrItemNotFound = errors.New("item not found")

// InsufficientStockError rejects a movement that would drive an item's
// on-hand quantity below zero. Requested is the total quantity asked for
// across the operation; Available is the on-hand quantity at validation time.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ItemName, e.Requested, e.Available)
}
