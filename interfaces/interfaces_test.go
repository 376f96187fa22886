package interfaces

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giygas/lighthospital/entities"
)

// mockDataStore implements DataStore for testing
type mockDataStore struct {
	medicines   []entities.Medicine
	patients    []entities.Patient
	lastUpdated time.Time
	updating    bool
}

var _ DataStore = (*mockDataStore)(nil)

func (m *mockDataStore) GetMedicines() []entities.Medicine { return m.medicines }
func (m *mockDataStore) GetPatients() []entities.Patient   { return m.patients }
func (m *mockDataStore) GetLastUpdated() time.Time         { return m.lastUpdated }
func (m *mockDataStore) IsUpdating() bool                  { return m.updating }
func (m *mockDataStore) GetServerStartTime() time.Time     { return time.Time{} }

func (m *mockDataStore) GetMedicinesMap() map[int64]entities.Medicine {
	out := make(map[int64]entities.Medicine, len(m.medicines))
	for _, med := range m.medicines {
		out[med.ID] = med
	}
	return out
}

func (m *mockDataStore) GetPatientsMap() map[int64]entities.Patient {
	out := make(map[int64]entities.Patient, len(m.patients))
	for _, p := range m.patients {
		out[p.ID] = p
	}
	return out
}

func (m *mockDataStore) GetCategories() []string { return nil }

func (m *mockDataStore) UpdateData(medicines []entities.Medicine, patients []entities.Patient) {
	m.medicines = medicines
	m.patients = patients
	m.lastUpdated = time.Now()
}

func (m *mockDataStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *mockDataStore) EndUpdate() { m.updating = false }

// mockLoader implements CatalogLoader for testing
type mockLoader struct {
	err error
}

var _ CatalogLoader = (*mockLoader)(nil)

func (m *mockLoader) LoadMedicines(ctx context.Context) ([]entities.Medicine, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []entities.Medicine{{ID: 1, Name: "布洛芬片"}, {ID: 2, Name: "板蓝根颗粒"}}, nil
}

func (m *mockLoader) LoadPatients(ctx context.Context) ([]entities.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []entities.Patient{{ID: 7, Name: "李华"}}, nil
}

// refresh is the minimal load-and-swap flow the scheduler implements
func refresh(ctx context.Context, store DataStore, loader CatalogLoader) error {
	if !store.BeginUpdate() {
		return errors.New("update in progress")
	}
	defer store.EndUpdate()

	medicines, err := loader.LoadMedicines(ctx)
	if err != nil {
		return err
	}
	patients, err := loader.LoadPatients(ctx)
	if err != nil {
		return err
	}
	store.UpdateData(medicines, patients)
	return nil
}

func TestRefreshThroughInterfaces(t *testing.T) {
	store := &mockDataStore{}

	if err := refresh(context.Background(), store, &mockLoader{}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(store.GetMedicines()) != 2 || len(store.GetPatients()) != 1 {
		t.Errorf("unexpected snapshot: %d medicines, %d patients", len(store.GetMedicines()), len(store.GetPatients()))
	}
	if _, ok := store.GetMedicinesMap()[2]; !ok {
		t.Error("expected medicine 2 in map")
	}
	if store.IsUpdating() {
		t.Error("update flag should be cleared")
	}
	if store.GetLastUpdated().IsZero() {
		t.Error("last updated should be set")
	}
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	store := &mockDataStore{medicines: []entities.Medicine{{ID: 9}}}

	err := refresh(context.Background(), store, &mockLoader{err: errors.New("disk gone")})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.GetMedicines()) != 1 || store.GetMedicines()[0].ID != 9 {
		t.Error("previous snapshot should be kept")
	}
}

func TestRefreshRejectsConcurrentUpdate(t *testing.T) {
	store := &mockDataStore{updating: true}
	if err := refresh(context.Background(), store, &mockLoader{}); err == nil {
		t.Error("expected refresh to be refused while updating")
	}
}
