// Package health reports whether the search service is serving a usable catalog.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/lighthospital/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	interval  time.Duration
}

// NewHealthChecker creates a health checker for a catalog refreshed every interval
func NewHealthChecker(dataStore interfaces.DataStore, interval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		interval:  interval,
	}
}

// HealthCheck returns the status, the data shown on /health and the HTTP code.
// A catalog older than three refresh intervals is degraded, older than six
// or without medicines it is unhealthy.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	medicines := h.dataStore.GetMedicines()
	patients := h.dataStore.GetPatients()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(medicines) == 0 || lastUpdate.IsZero():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 6*h.interval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 3*h.interval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":      lastUpdate.Format(time.RFC3339),
		"data_age_minutes": math.Round(dataAge.Minutes()*10) / 10,
		"next_update":      h.CalculateNextUpdate().Format(time.RFC3339),
		"medicines":        len(medicines),
		"patients":         len(patients),
		"is_updating":      isUpdating,
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(time.Since(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()
	next := h.dataStore.GetLastUpdated().Add(h.interval)
	if next.Before(now) {
		return now
	}
	return next
}
