package seed

import "pharmapos/m/domain"

// Catalog returns the demo inventory used to seed an empty store on first run.
// Returned as a fresh slice so callers can mutate their copy freely.
func Catalog() []domain.InventoryItem {
	return []domain.InventoryItem{
		{
			ID:            "1",
			Name:          "Amoxicillin 500mg",
			GenericName:   "Amoxicillin",
			Category:      "Antibiotics",
			Quantity:      45,
			Unit:          "capsules",
			Price:         12.50,
			ExpiryDate:    "2025-12-01",
			MinStockLevel: 50,
			BatchNumber:   "AMX-2023-001",
			Manufacturer:  "PharmaCore",
		},
		{
			ID:            "2",
			Name:          "Lipitor 20mg",
			GenericName:   "Atorvastatin",
			Category:      "Cardiovascular",
			Quantity:      120,
			Unit:          "tablets",
			Price:         25.00,
			ExpiryDate:    "2024-06-15",
			MinStockLevel: 30,
			BatchNumber:   "LPT-2023-089",
			Manufacturer:  "Pfizer",
		},
		{
			ID:            "3",
			Name:          "Panadol Extra",
			GenericName:   "Paracetamol",
			Category:      "Pain Relief",
			Quantity:      500,
			Unit:          "tablets",
			Price:         5.50,
			ExpiryDate:    "2026-01-20",
			MinStockLevel: 100,
			BatchNumber:   "PAN-2024-002",
			Manufacturer:  "GSK",
		},
		{
			ID:            "4",
			Name:          "Ventolin Inhaler",
			GenericName:   "Salbutamol",
			Category:      "Respiratory",
			Quantity:      8,
			Unit:          "units",
			Price:         18.75,
			ExpiryDate:    "2024-11-30",
			MinStockLevel: 15,
			BatchNumber:   "VEN-2023-555",
			Manufacturer:  "GSK",
		},
		{
			ID:            "5",
			Name:          "Metformin 500mg",
			GenericName:   "Metformin",
			Category:      "Diabetes",
			Quantity:      200,
			Unit:          "tablets",
			Price:         8.00,
			ExpiryDate:    "2024-02-01",
			MinStockLevel: 100,
			BatchNumber:   "MET-2022-999",
			Manufacturer:  "Sandoz",
		},
	}
}
