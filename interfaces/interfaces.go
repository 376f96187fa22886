// Package interfaces defines the core abstractions of the catalog search
// service so handlers, the scheduler and health checks can be tested
// against fakes.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/lighthospital/entities"
)

// DataQualityReport summarizes catalog issues found during a refresh
type DataQualityReport struct {
	DuplicateMedicineIDs  []int64
	DuplicatePatientIDs   []int64
	MedicinesWithoutName  int
	MedicinesWithoutPrice int // Count of medicines priced at zero
	MedicinesLowStock     int // Count of medicines at or below their minimum stock
	PatientsWithoutPhone  int
}

// DataStore defines the contract for the in-memory catalog snapshot.
// Readers never block; a refresh swaps the whole snapshot atomically.
type DataStore interface {
	GetMedicines() []entities.Medicine
	GetMedicinesMap() map[int64]entities.Medicine
	GetPatients() []entities.Patient
	GetPatientsMap() map[int64]entities.Patient
	GetCategories() []string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(medicines []entities.Medicine, patients []entities.Patient)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader reads the catalog from its source of truth.
type CatalogLoader interface {
	LoadMedicines(ctx context.Context) ([]entities.Medicine, error)
	LoadPatients(ctx context.Context) ([]entities.Patient, error)
}

// Scheduler manages the periodic catalog refresh.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for the search endpoint handlers.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	AutocompleteMedicines(w http.ResponseWriter, r *http.Request)
	ServePagedMedicines(w http.ResponseWriter, r *http.Request)
	FindMedicineByID(w http.ResponseWriter, r *http.Request)
	ServeCategories(w http.ResponseWriter, r *http.Request)
	ServeLowStock(w http.ResponseWriter, r *http.Request)
	ServePagedPatients(w http.ResponseWriter, r *http.Request)
	FindPatientByID(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports system health.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog refresh
	CalculateNextUpdate() time.Time
}

// DataValidator validates catalog data and user input.
type DataValidator interface {
	// ValidateCatalog rejects snapshots that must not replace the current one
	ValidateCatalog(medicines []entities.Medicine, patients []entities.Patient) error

	// ReportDataQuality lists the non-fatal issues of a snapshot
	ReportDataQuality(medicines []entities.Medicine, patients []entities.Patient) *DataQualityReport

	// ValidateInput validates a free text search term
	ValidateInput(input string) error

	// ValidateID validates a numeric record identifier
	ValidateID(input string) (int64, error)
}
