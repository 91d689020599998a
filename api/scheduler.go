/*
scheduler.go - Inspection deadline scheduler

PURPOSE:
  Periodically sweeps every vehicle, recomputes its inspection status and
  records an alert for each vehicle found dueSoon or overdue.

DESIGN:
  - Runs on a cron spec in the configured timezone (default: daily at 08:00)
  - The status is recomputed from the vehicle and its expenses each sweep;
    nothing about the previous sweep is consulted
  - Alerts are idempotent per (vehicle, due date, state), so repeated sweeps
    and restarts do not duplicate them
  - A failing vehicle is logged and skipped; the sweep continues

USAGE:
  scheduler := NewInspectionScheduler(store, logger, metrics, cfg.Scheduler, loc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - analytics/inspection.go: Due date resolution and classification
  - handlers.go: ListInspectionAlerts endpoint
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warp/fuel-engine/analytics"
	"github.com/warp/fuel-engine/config"
	"github.com/warp/fuel-engine/store/sqlite"
)

// InspectionScheduler records inspection alerts on a cron schedule.
type InspectionScheduler struct {
	Store   *sqlite.Store
	Logger  *zap.Logger
	Metrics *Metrics
	Config  config.SchedulerConfig

	// Now is the sweep clock; tests pin it.
	Now func() time.Time

	cron    *cron.Cron
	loc     *time.Location
	mu      sync.Mutex
	running bool
}

// NewInspectionScheduler creates a stopped scheduler whose cron spec is
// interpreted in loc.
func NewInspectionScheduler(store *sqlite.Store, logger *zap.Logger, metrics *Metrics, cfg config.SchedulerConfig, loc *time.Location) *InspectionScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &InspectionScheduler{
		Store:   store,
		Logger:  logger.Named("scheduler"),
		Metrics: metrics,
		Config:  cfg,
		Now:     func() time.Time { return time.Now().In(loc) },
		loc:     loc,
	}
}

// Start registers the sweep on a fresh cron and starts it. It is a no-op
// when the scheduler is disabled or already running.
func (s *InspectionScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Config.Enabled {
		s.Logger.Info("disabled, not starting")
		return nil
	}
	if s.running {
		return nil
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.Config.Spec, s.runSweep); err != nil {
		return fmt.Errorf("add inspection sweep %q: %w", s.Config.Spec, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	s.Logger.Info("started",
		zap.String("spec", s.Config.Spec),
		zap.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *InspectionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.Logger.Info("stopped")
}

func (s *InspectionScheduler) runSweep() {
	created, err := s.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("inspection sweep finished with errors", zap.Int("alerts_created", created), zap.Error(err))
		return
	}
	s.Logger.Info("inspection sweep finished", zap.Int("alerts_created", created))
}

// Sweep checks every vehicle once and returns how many new alerts were
// recorded. Per-vehicle errors are joined; the remaining vehicles are still
// checked.
func (s *InspectionScheduler) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { s.Metrics.observeSweep(time.Since(start)) }()

	now := s.Now().In(s.loc)

	vehicles, err := s.Store.ListVehicles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list vehicles: %w", err)
	}

	var errs []error
	created := 0
	for _, v := range vehicles {
		ok, err := s.checkVehicle(ctx, v, now)
		if err != nil {
			s.Logger.Warn("inspection check failed", zap.String("vehicle_id", v.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("vehicle %s: %w", v.ID, err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}

func (s *InspectionScheduler) checkVehicle(ctx context.Context, v analytics.Vehicle, now time.Time) (bool, error) {
	expenses, err := s.Store.ListExpenses(ctx, v.ID)
	if err != nil {
		return false, err
	}

	status := analytics.ComputeInspectionStatus(v.InspectionFields(), expenses, now)
	if status.State != analytics.InspectionDueSoon && status.State != analytics.InspectionOverdue {
		return false, nil
	}

	created, err := s.Store.SaveInspectionAlert(ctx, sqlite.InspectionAlert{
		VehicleID:     v.ID,
		DueDate:       *status.DueDate,
		State:         status.State,
		DaysRemaining: *status.DaysRemaining,
		CreatedAt:     now,
	})
	if err != nil {
		return false, err
	}
	if created {
		s.Metrics.observeAlert(string(status.State))
		s.Logger.Info("inspection alert",
			zap.String("vehicle_id", v.ID),
			zap.String("vehicle", v.Name),
			zap.String("state", string(status.State)),
			zap.Int("days_remaining", *status.DaysRemaining),
		)
	}
	return created, nil
}
