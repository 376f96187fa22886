package entities

// Medicine is one catalog entry of the clinic pharmacy.
type Medicine struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Specification string  `json:"specification"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
	MinStock      int     `json:"min_stock"`
	Category      string  `json:"category,omitempty"`
	Manufacturer  string  `json:"manufacturer,omitempty"`

	// Pre-computed search keys, filled by search.IndexMedicine
	SearchKeys SearchKeys `json:"-"`
}

// MedicineSuggestion is the trimmed shape returned by the autocomplete endpoint.
type MedicineSuggestion struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Specification string  `json:"specification"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
}

// Suggestion converts a medicine to its autocomplete shape.
func (m Medicine) Suggestion() MedicineSuggestion {
	return MedicineSuggestion{
		ID:            m.ID,
		Name:          m.Name,
		Specification: m.Specification,
		Unit:          m.Unit,
		Price:         m.Price,
		Stock:         m.Stock,
	}
}

// LowStock reports whether the stock is at or below the configured minimum.
func (m Medicine) LowStock() bool {
	return m.Stock <= m.MinStock
}
