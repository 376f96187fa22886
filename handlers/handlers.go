// Package handlers provides the HTTP handlers of the catalog search endpoint.
// It includes medicine autocomplete, patient lookup, pagination, health checks
// and JSON response formatting with input validation and error handling.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/lighthospital/logging"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// RespondWithJSON writes payload as a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// paging is a validated page/limit pair
type paging struct {
	page  int
	limit int
}

// parsePaging reads the page and limit query parameters.
// Missing values fall back to page 1 and the default page size.
func parsePaging(r *http.Request) (paging, error) {
	p := paging{page: 1, limit: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, fmt.Errorf("invalid page number")
		}
		p.page = page
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			return p, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
		}
		p.limit = limit
	}

	return p, nil
}

// bounds returns the slice window of this page over total items
func (p paging) bounds(total int) (start, end int) {
	start = min((p.page-1)*p.limit, total)
	end = min(start+p.limit, total)
	return start, end
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
