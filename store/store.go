// Package store reads the clinic catalog (medicines and patients) from the
// SQLite database shared with the clinic back office. The search service
// only ever opens it read-only; Seed is the one writer and exists for
// development databases.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/interfaces"
	"github.com/giygas/lighthospital/logging"
	_ "modernc.org/sqlite"
)

// Compile-time check to ensure Store implements CatalogLoader
var _ interfaces.CatalogLoader = (*Store)(nil)

// ErrNotFound is returned when the database file does not exist.
var ErrNotFound = errors.New("catalog database not found")

// Store is a read-only handle on the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// dsn builds a modernc sqlite URI for path.
func dsn(path string, readOnly bool) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	if readOnly {
		q.Set("mode", "ro")
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens the catalog at path read-only.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", dsn(path, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	logging.Info("Catalog database opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadMedicines returns every medicine ordered by name.
func (s *Store) LoadMedicines(ctx context.Context) ([]entities.Medicine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, specification, unit, price, stock, min_stock,
		       COALESCE(category, ''), COALESCE(manufacturer, '')
		FROM medicines
		ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("Failed to close medicine rows", "error", err)
		}
	}()

	medicines := make([]entities.Medicine, 0)
	skipped := 0
	for rows.Next() {
		var m entities.Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Specification, &m.Unit, &m.Price,
			&m.Stock, &m.MinStock, &m.Category, &m.Manufacturer); err != nil {
			skipped++
			continue
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medicines: %w", err)
	}

	if skipped > 0 {
		logging.Warn("Skipped unreadable medicine rows", "count", skipped)
	}
	return medicines, nil
}

// LoadPatients returns every patient ordered by most recent first.
func (s *Store) LoadPatients(ctx context.Context) ([]entities.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(pinyin, ''), gender, age, COALESCE(phone, '')
		FROM patients
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("Failed to close patient rows", "error", err)
		}
	}()

	patients := make([]entities.Patient, 0)
	skipped := 0
	for rows.Next() {
		var p entities.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Pinyin, &p.Gender, &p.Age, &p.Phone); err != nil {
			skipped++
			continue
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patients: %w", err)
	}

	if skipped > 0 {
		logging.Warn("Skipped unreadable patient rows", "count", skipped)
	}
	return patients, nil
}
