package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-engine/config"
	"github.com/warp/fuel-engine/logging"
)

func newTestScheduler(t *testing.T, h *Handler, cfg config.SchedulerConfig) *InspectionScheduler {
	t.Helper()
	s := NewInspectionScheduler(h.Store, logging.Nop(), h.Metrics, cfg, time.UTC)
	s.Now = func() time.Time { return testNow }
	return s
}

func TestSweep_RecordsDueSoonAndOverdue(t *testing.T) {
	// GIVEN: One overdue, one due-soon and one unknown vehicle
	h, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "inspection-overdue")
	s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true, Spec: "0 8 * * *"})

	// WHEN: Sweeping
	created, err := s.Sweep(context.Background())

	// THEN: An alert is recorded for each vehicle that needs attention
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	rec := do(t, router, http.MethodGet, "/api/inspection-alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decodeBody[[]InspectionAlertDTO](t, rec)
	require.Len(t, alerts, 2)

	byVehicle := map[string]InspectionAlertDTO{}
	for _, a := range alerts {
		byVehicle[a.VehicleID] = a
	}
	assert.Equal(t, "overdue", byVehicle["inspection-van"].State)
	assert.Equal(t, -12, byVehicle["inspection-van"].DaysRemaining)
	assert.Equal(t, "2024-06-03", byVehicle["inspection-van"].DueDate)
	assert.Equal(t, "dueSoon", byVehicle["inspection-clio"].State)
	assert.Equal(t, "2024-07-08", byVehicle["inspection-clio"].DueDate)
}

func TestSweep_IsIdempotent(t *testing.T) {
	h, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "inspection-overdue")
	s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true, Spec: "0 8 * * *"})

	_, err := s.Sweep(context.Background())
	require.NoError(t, err)

	// A day later nothing changed state, so nothing new is recorded.
	s.Now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	created, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)

	rec := do(t, router, http.MethodGet, "/api/inspection-alerts?vehicle_id=inspection-van", nil)
	assert.Len(t, decodeBody[[]InspectionAlertDTO](t, rec), 1)
}

func TestSweep_StateChangeAddsAlert(t *testing.T) {
	// GIVEN: A due-soon vehicle already alerted
	h, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "inspection-overdue")
	s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true})

	_, err := s.Sweep(context.Background())
	require.NoError(t, err)

	// WHEN: Its due date passes
	s.Now = func() time.Time { return time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC) }
	created, err := s.Sweep(context.Background())

	// THEN: The overdue state is recorded as a new alert
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	rec := do(t, router, http.MethodGet, "/api/inspection-alerts?vehicle_id=inspection-clio", nil)
	alerts := decodeBody[[]InspectionAlertDTO](t, rec)
	require.Len(t, alerts, 2)
	assert.Equal(t, "overdue", alerts[0].State)
}

func TestSweep_NoVehicles(t *testing.T) {
	h, _ := setupTestHandler(t, testAnalyticsConfig())
	s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true})

	created, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestScheduler_StartStop(t *testing.T) {
	h, _ := setupTestHandler(t, testAnalyticsConfig())

	t.Run("disabled does not start", func(t *testing.T) {
		s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: false, Spec: "not a schedule"})
		require.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("invalid cron expression", func(t *testing.T) {
		s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true, Spec: "every morning"})
		assert.Error(t, s.Start())
	})

	t.Run("start twice then stop", func(t *testing.T) {
		s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true, Spec: "@every 1h"})
		require.NoError(t, s.Start())
		require.NoError(t, s.Start())
		assert.Len(t, s.cron.Entries(), 1)
		s.Stop()
		s.Stop()
	})

	t.Run("restart registers the sweep once", func(t *testing.T) {
		// GIVEN: A scheduler started and stopped
		s := newTestScheduler(t, h, config.SchedulerConfig{Enabled: true, Spec: "@every 1h"})
		require.NoError(t, s.Start())
		s.Stop()

		// WHEN: Starting it again
		require.NoError(t, s.Start())
		defer s.Stop()

		// THEN: Each tick runs a single sweep
		assert.Len(t, s.cron.Entries(), 1)
	})
}
