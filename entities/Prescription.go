package entities

// PrescriptionItem is one medicine line of a prescription as submitted by the desk.
type PrescriptionItem struct {
	MedicineID    int64   `json:"medicine_id,omitempty"`
	MedicineName  string  `json:"medicine_name"`
	Specification string  `json:"specification"`
	Dosage        string  `json:"dosage"`
	Usage         string  `json:"usage"`
	Frequency     string  `json:"frequency"`
	Days          int     `json:"days"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalPrice    float64 `json:"total_price"`
}
