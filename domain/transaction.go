package domain

import "time"

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn   MovementType = "IN"
	MovementOut  MovementType = "OUT"
	MovementSale MovementType = "SALE"
)

// Transaction is an immutable ledger entry recording one stock movement.
// ItemName is a snapshot taken at write time; later edits or deletion of the
// item never alter past entries.
type Transaction struct {
	ID         string       `json:"id"`
	ItemID     string       `json:"itemId"`
	ItemName   string       `json:"itemName"`
	Type       MovementType `json:"type"`
	Quantity   int64        `json:"quantity"`
	Date       time.Time    `json:"date"`
	Notes      string       `json:"notes,omitempty"`
	TotalPrice *float64     `json:"totalPrice,omitempty"` // SALE entries only
}

// CartLine is one proposed sale line: an item reference and a positive quantity.
type CartLine struct {
	ItemID   string `json:"itemId"`
	Quantity int64  `json:"quantity"`
}
