package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/giygas/lighthospital/data"
	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/validation"
)

// mockLoader serves a configurable catalog
type mockLoader struct {
	mu        sync.Mutex
	medicines []entities.Medicine
	patients  []entities.Patient
	err       error
	loads     int
}

func (m *mockLoader) LoadMedicines(ctx context.Context) ([]entities.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return append([]entities.Medicine(nil), m.medicines...), nil
}

func (m *mockLoader) LoadPatients(ctx context.Context) ([]entities.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]entities.Patient(nil), m.patients...), nil
}

func (m *mockLoader) set(medicines []entities.Medicine, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.medicines = medicines
	m.err = err
}

func (m *mockLoader) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func newLoader() *mockLoader {
	return &mockLoader{
		medicines: []entities.Medicine{
			{ID: 1, Name: "布洛芬片", Price: 8.8, Stock: 80, MinStock: 10},
			{ID: 2, Name: "板蓝根颗粒", Price: 18, Stock: 5, MinStock: 10},
		},
		patients: []entities.Patient{{ID: 1, Name: "李华", Age: 28}},
	}
}

func TestRefreshLoadsCatalog(t *testing.T) {
	store := data.NewDataContainer()
	s := NewScheduler(store, newLoader(), validation.NewDataValidator(), time.Minute)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := len(store.GetMedicines()); got != 2 {
		t.Errorf("Expected 2 medicines, got %d", got)
	}
	if got := len(store.GetPatients()); got != 1 {
		t.Errorf("Expected 1 patient, got %d", got)
	}
	if store.IsUpdating() {
		t.Error("Update flag should be released")
	}
}

func TestRefreshKeepsSnapshotOnFailure(t *testing.T) {
	store := data.NewDataContainer()
	loader := newLoader()
	s := NewScheduler(store, loader, validation.NewDataValidator(), time.Minute)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	updated := store.GetLastUpdated()

	loader.set(nil, errors.New("database is locked"))
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Expected load error")
	}
	if got := len(store.GetMedicines()); got != 2 {
		t.Errorf("Previous snapshot should be kept, got %d medicines", got)
	}
	if !store.GetLastUpdated().Equal(updated) {
		t.Error("Last updated should not move on failure")
	}
}

func TestRefreshRejectsInvalidCatalog(t *testing.T) {
	store := data.NewDataContainer()
	loader := newLoader()
	s := NewScheduler(store, loader, validation.NewDataValidator(), time.Minute)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	loader.set([]entities.Medicine{}, nil)
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Expected an empty catalog to be rejected")
	}
	if got := len(store.GetMedicines()); got != 2 {
		t.Errorf("Previous snapshot should be kept, got %d medicines", got)
	}
}

func TestRefreshSkipsWhileUpdating(t *testing.T) {
	store := data.NewDataContainer()
	loader := newLoader()
	s := NewScheduler(store, loader, validation.NewDataValidator(), time.Minute)

	if !store.BeginUpdate() {
		t.Fatal("BeginUpdate failed")
	}
	defer store.EndUpdate()

	if err := s.Refresh(context.Background()); err != nil {
		t.Errorf("Skipped refresh should not error, got %v", err)
	}
	if loader.loadCount() != 0 {
		t.Error("Loader should not be called while another update runs")
	}
}

func TestStartAndStop(t *testing.T) {
	store := data.NewDataContainer()
	loader := newLoader()
	s := NewScheduler(store, loader, validation.NewDataValidator(), time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if loader.loadCount() != 1 {
		t.Errorf("Expected exactly the initial load, got %d", loader.loadCount())
	}
	if next := s.NextRun(); next.Before(time.Now()) {
		t.Errorf("Next run should be in the future, got %v", next)
	}

	// Stop is idempotent
	s.Stop()
}

func TestStartFailsWithoutCatalog(t *testing.T) {
	loader := newLoader()
	loader.set(nil, errors.New("no such table: medicines"))

	s := NewScheduler(data.NewDataContainer(), loader, validation.NewDataValidator(), time.Hour)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Expected Start to fail when the initial load fails")
	}
}
