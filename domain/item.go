package domain

import "time"

// InventoryItem is one stock-keeping unit in the catalog.
type InventoryItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	GenericName   string  `json:"genericName"`
	Category      string  `json:"category"`
	Quantity      int64   `json:"quantity"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	ExpiryDate    string  `json:"expiryDate"` // YYYY-MM-DD
	MinStockLevel int64   `json:"minStockLevel"`
	BatchNumber   string  `json:"batchNumber"`
	Manufacturer  string  `json:"manufacturer"`
}

// LowStock reports whether the on-hand quantity has reached the reorder threshold.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

// Expiry parses the item's expiry date. Items with unparseable dates never expire.
func (i InventoryItem) Expiry() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", i.ExpiryDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Expired reports whether the item's expiry date is strictly before today.
func (i InventoryItem) Expired(today time.Time) bool {
	exp, ok := i.Expiry()
	if !ok {
		return false
	}
	return exp.Before(today.Truncate(24 * time.Hour))
}

// ExpiringSoon reports whether the item expires within the given window,
// not counting items that are already expired.
func (i InventoryItem) ExpiringSoon(today time.Time, within time.Duration) bool {
	exp, ok := i.Expiry()
	if !ok {
		return false
	}
	day := today.Truncate(24 * time.Hour)
	return !exp.Before(day) && exp.Before(day.Add(within))
}
