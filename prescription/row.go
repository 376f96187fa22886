package prescription

import (
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/giygas/lighthospital/combobox"
	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/pricing"
	"github.com/giygas/lighthospital/searchclient"
)

// Line fields
const (
	FieldMedicineID    = "medicine_id"
	FieldMedicineName  = "medicine_name"
	FieldSpecification = "specification"
	FieldUnit          = "unit"
	FieldDosage        = "dosage"
	FieldUsage         = "usage"
	FieldFrequency     = "frequency"
	FieldDays          = "days"
	FieldQuantity      = "quantity"
	FieldUnitPrice     = "unit_price"
	FieldTotalPrice    = "total_price"
)

// MedicineBinding fills a line from a picked medicine. The price and the
// medicine ID always follow the pick so the line never bills a stale price;
// everything else is only a default for empty fields.
var MedicineBinding = &combobox.Binding{
	Input: FieldMedicineName,
	Mappings: []combobox.Mapping{
		{From: combobox.FieldID, To: FieldMedicineID, Policy: combobox.AlwaysOverwrite},
		{From: searchclient.FieldPrice, To: FieldUnitPrice, Fallback: "0", Policy: combobox.AlwaysOverwrite},
		{From: searchclient.FieldSpecification, To: FieldSpecification, Policy: combobox.FillIfEmpty},
		{From: searchclient.FieldUnit, To: FieldUnit, Policy: combobox.FillIfEmpty},
		{To: FieldQuantity, Fallback: "1", Policy: combobox.FillIfEmpty},
		{To: FieldDays, Fallback: "1", Policy: combobox.FillIfEmpty},
	},
	Derived: []func(combobox.Target){RecomputeTotal},
}

// RecomputeTotal refreshes the line total from quantity and unit price
func RecomputeTotal(t combobox.Target) {
	t.Set(FieldTotalPrice, pricing.Total(t.Get(FieldQuantity), t.Get(FieldUnitPrice)))
}

// fieldSet is a mutex guarded bag of form fields that stops accepting
// writes once killed
type fieldSet struct {
	mu     sync.Mutex
	values map[string]string
	dead   bool
}

func newFieldSet() *fieldSet {
	return &fieldSet{values: make(map[string]string)}
}

func (s *fieldSet) Get(field string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[field]
}

func (s *fieldSet) Set(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return
	}
	s.values[field] = value
}

func (s *fieldSet) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead
}

func (s *fieldSet) kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = true
}

func (s *fieldSet) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

func (s *fieldSet) intField(field string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s.Get(field)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Row is one medicine line of the prescription. It is the combobox.Target
// of its medicine picker: Set is a programmatic write that never raises
// input events, Edit is what the user types.
type Row struct {
	id     string
	fields *fieldSet
	box    *combobox.Combobox
}

var _ combobox.Target = (*Row)(nil)

// ID returns the line identifier
func (r *Row) ID() string { return r.id }

// Box returns the medicine picker of the line
func (r *Row) Box() *combobox.Combobox { return r.box }

// Get returns a field value, "" when unset
func (r *Row) Get(field string) string { return r.fields.Get(field) }

// Set writes a field without side effects. Writes to a removed line are dropped.
func (r *Row) Set(field, value string) { r.fields.Set(field, value) }

// Alive reports whether the line is still on the form
func (r *Row) Alive() bool { return r.fields.Alive() }

// Fields returns a copy of every field of the line
func (r *Row) Fields() map[string]string { return r.fields.snapshot() }

// Edit applies a user edit. Typing a medicine name drives the picker and
// forgets the previously picked medicine; quantity and price edits
// recompute the line total.
func (r *Row) Edit(field, value string) {
	if !r.Alive() {
		return
	}
	r.Set(field, value)

	switch field {
	case FieldMedicineName:
		r.Set(FieldMedicineID, "")
		if r.box != nil {
			r.box.Input(value)
		}
	case FieldQuantity, FieldUnitPrice:
		RecomputeTotal(r)
	}
}

// Item exports the line as it is submitted
func (r *Row) Item() entities.PrescriptionItem {
	v := r.fields.snapshot()
	days, _ := strconv.Atoi(strings.TrimSpace(v[FieldDays]))
	id, _ := strconv.ParseInt(strings.TrimSpace(v[FieldMedicineID]), 10, 64)

	return entities.PrescriptionItem{
		MedicineID:    id,
		MedicineName:  strings.TrimSpace(v[FieldMedicineName]),
		Specification: v[FieldSpecification],
		Dosage:        v[FieldDosage],
		Usage:         v[FieldUsage],
		Frequency:     v[FieldFrequency],
		Days:          days,
		Quantity:      pricing.Quantity(v[FieldQuantity]),
		UnitPrice:     pricing.Float(v[FieldUnitPrice]),
		TotalPrice:    pricing.Float(pricing.Total(v[FieldQuantity], v[FieldUnitPrice])),
	}
}

func (r *Row) teardown() {
	if r.box != nil {
		r.box.Teardown()
	}
	r.fields.kill()
}
