// Package prescription is the controller of the prescription form. A Form
// owns the explicit desk state (doctor, page, selected patient) and the
// medicine lines, each with its own autocomplete combobox bound to the line.
package prescription

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giygas/lighthospital/combobox"
	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/pricing"
	"github.com/giygas/lighthospital/searchclient"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Header fields filled by the patient picker
const (
	FieldPatientID   = "patient_id"
	FieldPatientName = "patient_name"
	FieldGender      = "gender"
	FieldAge         = "age"
	FieldPhone       = "phone"
)

// DefaultPage is the desk page a new form opens on
const DefaultPage = "prescriptions"

// RendererFactory returns the renderer of one combobox. name is "patient"
// for the picker and the row ID for medicine lines.
type RendererFactory func(name string) combobox.Renderer

// Options configures a Form
type Options struct {
	Doctor    string
	Page      string
	Medicines combobox.Searcher
	Patients  combobox.Searcher
	Debounce  time.Duration
	Clock     clockwork.Clock
	Renderers RendererFactory
}

// Form is one prescription being written at the desk
type Form struct {
	mu     sync.Mutex
	opts   Options
	doctor string
	page   string
	rows   []*Row
	closed bool

	header     *fieldSet
	patientBox *combobox.Combobox
}

// PatientBinding fills the prescription header from a picked patient.
// The patient ID always follows the pick; demographic fields keep what
// the user typed.
var PatientBinding = &combobox.Binding{
	Input: FieldPatientName,
	Mappings: []combobox.Mapping{
		{From: combobox.FieldID, To: FieldPatientID, Policy: combobox.AlwaysOverwrite},
		{From: searchclient.FieldGender, To: FieldGender, Policy: combobox.FillIfEmpty},
		{From: searchclient.FieldAge, To: FieldAge, Policy: combobox.FillIfEmpty},
		{From: searchclient.FieldPhone, To: FieldPhone, Policy: combobox.FillIfEmpty},
	},
}

// NewForm creates an empty prescription with its patient picker
func NewForm(opts Options) *Form {
	if opts.Page == "" {
		opts.Page = DefaultPage
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Medicines == nil {
		opts.Medicines = combobox.SearchFunc(func(context.Context, string) ([]combobox.Candidate, error) {
			return nil, nil
		})
	}

	f := &Form{
		opts:   opts,
		doctor: opts.Doctor,
		page:   opts.Page,
		header: newFieldSet(),
	}

	if opts.Patients != nil {
		f.patientBox = combobox.New(opts.Patients, combobox.Options{
			Name:     "patient",
			Debounce: opts.Debounce,
			Clock:    opts.Clock,
			Renderer: f.renderer("patient"),
			Binding:  PatientBinding,
			Target:   f.header,
		})
	}
	return f
}

func (f *Form) renderer(name string) combobox.Renderer {
	if f.opts.Renderers == nil {
		return nil
	}
	return f.opts.Renderers(name)
}

// Doctor returns the prescribing doctor
func (f *Form) Doctor() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doctor
}

// Page returns the current desk page
func (f *Form) Page() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// SetPage switches the desk page. Leaving the page closes every dropdown.
func (f *Form) SetPage(page string) {
	f.mu.Lock()
	changed := f.page != page
	f.page = page
	rows := slices.Clone(f.rows)
	f.mu.Unlock()

	if !changed {
		return
	}
	if f.patientBox != nil {
		f.patientBox.Blur()
	}
	for _, r := range rows {
		r.box.Blur()
	}
}

// PatientBox returns the patient picker, nil without a patient searcher
func (f *Form) PatientBox() *combobox.Combobox {
	return f.patientBox
}

// Header returns a header field
func (f *Form) Header(field string) string {
	return f.header.Get(field)
}

// EditHeader applies a user edit to a header field. Typing in the patient
// name drives the picker and forgets the previously picked patient.
func (f *Form) EditHeader(field, value string) {
	f.header.Set(field, value)
	if field == FieldPatientName && f.patientBox != nil {
		f.header.Set(FieldPatientID, "")
		f.patientBox.Input(value)
	}
}

// Patient returns the patient the prescription is written for, 0 if none was picked
func (f *Form) Patient() (id int64, name string) {
	return f.header.intField(FieldPatientID), f.header.Get(FieldPatientName)
}

// AddRow appends an empty medicine line
func (f *Form) AddRow() *Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &Row{id: uuid.NewString(), fields: newFieldSet()}
	if f.closed {
		r.fields.kill()
		return r
	}

	r.box = combobox.New(f.opts.Medicines, combobox.Options{
		Name:     "medicine:" + r.id,
		Debounce: f.opts.Debounce,
		Clock:    f.opts.Clock,
		Renderer: f.renderer(r.id),
		Binding:  MedicineBinding,
		Target:   r,
	})
	f.rows = append(f.rows, r)

	logging.Debug("Prescription line added", "row", r.id, "rows", len(f.rows))
	return r
}

// RemoveRow deletes a line. Its pending search is cancelled and late
// results are never written to it.
func (f *Form) RemoveRow(id string) bool {
	f.mu.Lock()
	i := slices.IndexFunc(f.rows, func(r *Row) bool { return r.id == id })
	if i < 0 {
		f.mu.Unlock()
		return false
	}
	r := f.rows[i]
	f.rows = slices.Delete(f.rows, i, i+1)
	f.mu.Unlock()

	r.teardown()
	logging.Debug("Prescription line removed", "row", id)
	return true
}

// Row returns the live line with the given ID
func (f *Form) Row(id string) (*Row, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

// Rows returns the live lines in display order
func (f *Form) Rows() []*Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.rows)
}

// Total is the grand total of the live lines
func (f *Form) Total() string {
	rows := f.Rows()
	totals := make([]string, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, r.Get(FieldTotalPrice))
	}
	return pricing.Sum(totals...)
}

// Items exports the lines that name a medicine, as the desk submits them
func (f *Form) Items() []entities.PrescriptionItem {
	rows := f.Rows()
	items := make([]entities.PrescriptionItem, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Get(FieldMedicineName)) == "" {
			continue
		}
		items = append(items, r.Item())
	}
	return items
}

// Close tears down every combobox of the form
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	rows := f.rows
	f.rows = nil
	f.mu.Unlock()

	if f.patientBox != nil {
		f.patientBox.Teardown()
	}
	f.header.kill()
	for _, r := range rows {
		r.teardown()
	}
}
