// Package data holds the in-memory catalog snapshot served by the search
// endpoint. The snapshot is replaced as a whole so readers always see
// medicines, patients and their lookup maps from the same refresh.
package data

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/interfaces"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/search"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is one immutable catalog generation
type snapshot struct {
	medicines    []entities.Medicine
	medicinesMap map[int64]entities.Medicine
	patients     []entities.Patient
	patientsMap  map[int64]entities.Patient
	categories   []string
}

// DataContainer holds the catalog with an atomic pointer for zero-downtime updates
type DataContainer struct {
	current         atomic.Value // *snapshot
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with an empty catalog
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{
		medicines:    make([]entities.Medicine, 0),
		medicinesMap: make(map[int64]entities.Medicine),
		patients:     make([]entities.Patient, 0),
		patientsMap:  make(map[int64]entities.Patient),
		categories:   make([]string, 0),
	})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if v := dc.current.Load(); v != nil {
		if s, ok := v.(*snapshot); ok {
			return s
		}
	}

	logging.Warn("Catalog snapshot is empty or invalid")
	return &snapshot{
		medicines:    []entities.Medicine{},
		medicinesMap: map[int64]entities.Medicine{},
		patients:     []entities.Patient{},
		patientsMap:  map[int64]entities.Patient{},
		categories:   []string{},
	}
}

// GetMedicines returns the medicines ordered by name
func (dc *DataContainer) GetMedicines() []entities.Medicine {
	return dc.load().medicines
}

// GetMedicinesMap returns the medicines by ID
func (dc *DataContainer) GetMedicinesMap() map[int64]entities.Medicine {
	return dc.load().medicinesMap
}

// GetPatients returns the patients, most recent first
func (dc *DataContainer) GetPatients() []entities.Patient {
	return dc.load().patients
}

// GetPatientsMap returns the patients by ID
func (dc *DataContainer) GetPatientsMap() map[int64]entities.Patient {
	return dc.load().patientsMap
}

// GetCategories returns the distinct non-empty medicine categories, sorted
func (dc *DataContainer) GetCategories() []string {
	return dc.load().categories
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData indexes the records for search and swaps them in atomically.
// The slices are owned by the container afterwards.
func (dc *DataContainer) UpdateData(medicines []entities.Medicine, patients []entities.Patient) {
	if medicines == nil {
		medicines = []entities.Medicine{}
	}
	if patients == nil {
		patients = []entities.Patient{}
	}

	s := &snapshot{
		medicines:    medicines,
		medicinesMap: make(map[int64]entities.Medicine, len(medicines)),
		patients:     patients,
		patientsMap:  make(map[int64]entities.Patient, len(patients)),
	}

	seen := make(map[string]struct{})
	for i := range medicines {
		search.IndexMedicine(&medicines[i])
		s.medicinesMap[medicines[i].ID] = medicines[i]
		if c := medicines[i].Category; c != "" {
			seen[c] = struct{}{}
		}
	}
	for i := range patients {
		search.IndexPatient(&patients[i])
		s.patientsMap[patients[i].ID] = patients[i]
	}

	s.categories = make([]string, 0, len(seen))
	for c := range seen {
		s.categories = append(s.categories, c)
	}
	slices.Sort(s.categories)

	dc.current.Store(s)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
