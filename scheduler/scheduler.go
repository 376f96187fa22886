// Package scheduler keeps the catalog snapshot fresh. It loads the catalog
// once at startup, then reloads it from the database on a gocron interval
// and warns when the snapshot goes stale.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/lighthospital/interfaces"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const loadTimeout = 30 * time.Second

// Scheduler handles catalog refreshes using injected dependencies
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.CatalogLoader
	validator interfaces.DataValidator
	interval  time.Duration
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler refreshing the catalog every interval
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.CatalogLoader,
	validator interfaces.DataValidator, interval time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		loader:    loader,
		validator: validator,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Interval returns the refresh interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start loads the catalog, schedules the refreshes and the staleness monitor.
// A failed initial load is fatal; later failures keep the previous snapshot.
func (s *Scheduler) Start() error {
	if err := s.Refresh(context.Background()); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refresh", "error", err)
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduled refreshes and the monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextRun returns when the next refresh is due
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	if next.IsZero() {
		return s.dataStore.GetLastUpdated().Add(s.interval)
	}
	return next
}

// Refresh reloads the catalog and swaps it in when it passes validation
func (s *Scheduler) Refresh(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping")
		metrics.RecordRefresh(metrics.RefreshSkipped, 0, 0)
		return nil
	}
	defer s.dataStore.EndUpdate()

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	start := time.Now()

	medicines, err := s.loader.LoadMedicines(ctx)
	if err != nil {
		metrics.RecordRefresh(metrics.RefreshFailure, 0, 0)
		return fmt.Errorf("failed to load medicines: %w", err)
	}

	patients, err := s.loader.LoadPatients(ctx)
	if err != nil {
		metrics.RecordRefresh(metrics.RefreshFailure, 0, 0)
		return fmt.Errorf("failed to load patients: %w", err)
	}

	if err := s.validator.ValidateCatalog(medicines, patients); err != nil {
		metrics.RecordRefresh(metrics.RefreshRejected, 0, 0)
		return fmt.Errorf("catalog rejected: %w", err)
	}

	report := s.validator.ReportDataQuality(medicines, patients)
	if report.MedicinesWithoutPrice > 0 {
		logging.Warn("Medicines without price", "count", report.MedicinesWithoutPrice)
	}
	if report.MedicinesLowStock > 0 {
		logging.Info("Medicines at or below minimum stock", "count", report.MedicinesLowStock)
	}
	if report.PatientsWithoutPhone > 0 {
		logging.Debug("Patients without phone", "count", report.PatientsWithoutPhone)
	}

	s.dataStore.UpdateData(medicines, patients)
	metrics.RecordRefresh(metrics.RefreshSuccess, len(medicines), len(patients))

	logging.Info("Catalog refresh completed",
		"duration", time.Since(start).String(),
		"medicine_count", len(medicines),
		"patient_count", len(patients))

	return nil
}

// startHealthMonitoring warns when three refreshes in a row did not happen
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if time.Since(s.dataStore.GetLastUpdated()) > 3*s.interval {
					logging.Warn("Catalog has not been refreshed recently",
						"last_updated", s.dataStore.GetLastUpdated().Format(time.RFC3339))
				}
			}
		}
	}()
}
