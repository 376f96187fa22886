package handlers

import (
	"net/http"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/interfaces"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/metrics"
	"github.com/giygas/lighthospital/search"
	"github.com/go-chi/chi/v5"
)

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// DefaultSearchLimit caps autocomplete results when no limit is configured
const DefaultSearchLimit = 10

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	searchLimit   int
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker, searchLimit int) *HTTPHandlerImpl {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		searchLimit:   searchLimit,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// routing is handled by chi
	RespondWithError(w, http.StatusNotImplemented, "Use the routed endpoints")
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime,omitempty"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// AutocompleteMedicines answers the desk combobox: up to searchLimit
// medicines matching q by name, specification, pinyin or initials.
func (h *HTTPHandlerImpl) AutocompleteMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		RespondWithJSON(w, http.StatusOK, map[string]any{"medicines": []entities.MedicineSuggestion{}})
		return
	}

	if err := h.validator.ValidateInput(q); err != nil {
		logging.Warn("Rejected autocomplete query", "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matched := search.Medicines(h.dataStore.GetMedicines(), q, h.searchLimit)
	suggestions := make([]entities.MedicineSuggestion, len(matched))
	for i, m := range matched {
		suggestions[i] = m.Suggestion()
	}
	metrics.ObserveAutocomplete(metrics.KindMedicine, len(suggestions))

	logging.Debug("Medicine autocomplete", "query", q, "results", len(suggestions))
	RespondWithJSON(w, http.StatusOK, map[string]any{"medicines": suggestions})
}

// ServePagedMedicines lists the catalog, optionally filtered by search term and category
func (h *HTTPHandlerImpl) ServePagedMedicines(w http.ResponseWriter, r *http.Request) {
	p, err := parsePaging(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	medicines := h.dataStore.GetMedicines()
	if term := r.URL.Query().Get("search"); strings.TrimSpace(term) != "" {
		if err := h.validator.ValidateInput(term); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		medicines = search.Medicines(medicines, term, 0)
	}

	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filtered := make([]entities.Medicine, 0, len(medicines))
		for _, m := range medicines {
			if m.Category == category {
				filtered = append(filtered, m)
			}
		}
		medicines = filtered
	}

	start, end := p.bounds(len(medicines))
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"medicines": medicines[start:end],
		"total":     len(medicines),
		"page":      p.page,
		"limit":     p.limit,
	})
}

// FindMedicineByID returns one medicine by its ID
func (h *HTTPHandlerImpl) FindMedicineByID(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateID(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid medicine ID")
		return
	}

	med, exists := h.dataStore.GetMedicinesMap()[id]
	if !exists {
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	RespondWithJSON(w, http.StatusOK, med)
}

// ServeCategories lists the distinct medicine categories
func (h *HTTPHandlerImpl) ServeCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.dataStore.GetCategories()
	if categories == nil {
		categories = []string{}
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// ServeLowStock lists medicines at or below their minimum stock, lowest first
func (h *HTTPHandlerImpl) ServeLowStock(w http.ResponseWriter, r *http.Request) {
	low := make([]entities.Medicine, 0)
	for _, m := range h.dataStore.GetMedicines() {
		if m.LowStock() {
			low = append(low, m)
		}
	}
	slices.SortStableFunc(low, func(a, b entities.Medicine) int {
		return a.Stock - b.Stock
	})

	RespondWithJSON(w, http.StatusOK, map[string]any{"medicines": low})
}

// ServePagedPatients answers the patient picker and the patient list.
// The search term matches name, pinyin, initials or phone.
func (h *HTTPHandlerImpl) ServePagedPatients(w http.ResponseWriter, r *http.Request) {
	p, err := parsePaging(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patients := h.dataStore.GetPatients()
	if term := r.URL.Query().Get("search"); strings.TrimSpace(term) != "" {
		if err := h.validator.ValidateInput(term); err != nil {
			logging.Warn("Rejected patient search", "error", err)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		patients = search.Patients(patients, term)
		metrics.ObserveAutocomplete(metrics.KindPatient, len(patients))
	}

	start, end := p.bounds(len(patients))
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"patients": patients[start:end],
		"total":    len(patients),
		"page":     p.page,
		"limit":    p.limit,
	})
}

// FindPatientByID returns one patient by its ID
func (h *HTTPHandlerImpl) FindPatientByID(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateID(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	patient, exists := h.dataStore.GetPatientsMap()[id]
	if !exists {
		RespondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}

	RespondWithJSON(w, http.StatusOK, patient)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		response.Uptime = formatUptimeHuman(time.Since(start))
	}

	RespondWithJSON(w, httpStatus, response)
}
