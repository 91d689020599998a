/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Tests that each scenario loads through the API and produces the state it
	advertises: vehicles exist, segments skip the anomalies, inspection
	states land where the scenario description says.
*/
package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ids := []string{}
	for _, s := range decodeBody[[]ScenarioDTO](t, rec) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"commuter", "anomalies", "inspection-overdue", "demo"}, ids)
}

func TestLoadScenario_VehicleCounts(t *testing.T) {
	tests := []struct {
		scenario string
		vehicles int
	}{
		{"commuter", 1},
		{"anomalies", 1},
		{"inspection-overdue", 3},
		{"demo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			// GIVEN: A database already holding another scenario
			_, router := setupTestHandler(t, testAnalyticsConfig())
			loadScenario(t, router, "inspection-overdue")

			// WHEN: Loading the scenario
			loadScenario(t, router, tt.scenario)

			// THEN: Only its vehicles remain and it is reported as current
			rec := do(t, router, http.MethodGet, "/api/vehicles", nil)
			assert.Len(t, decodeBody[[]VehicleDTO](t, rec), tt.vehicles)

			rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, tt.scenario, decodeBody[ScenarioDTO](t, rec).ID)
		})
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "road-trip"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_Anomalies(t *testing.T) {
	// GIVEN: The anomalies scenario
	_, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "anomalies")

	// WHEN: Computing all segments
	rec := do(t, router, http.MethodGet, "/api/vehicles/anomaly-astra/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s := decodeBody[SummaryDTO](t, rec)

	// THEN: The leading partial and the negative-distance pair are skipped,
	// and the same-minute pair closes on the full fill-up
	closing := []string{}
	for _, seg := range s.Segments {
		closing = append(closing, seg.ClosingFillUpID)
	}
	assert.Equal(t, []string{"anomaly-f03", "anomaly-f05", "anomaly-f07", "anomaly-f09", "anomaly-f10"}, closing)

	assert.Equal(t, 630, s.Segments[3].DistanceKm)
	assert.Equal(t, "42.3", s.Segments[3].LitersUsed.String())
}

func TestScenario_AnomaliesPageMatchesSummary(t *testing.T) {
	// GIVEN: The anomalies scenario paged three at a time
	_, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "anomalies")

	rec := do(t, router, http.MethodGet, "/api/vehicles/anomaly-astra/summary", nil)
	want := map[string]string{}
	for _, seg := range decodeBody[SummaryDTO](t, rec).Segments {
		want[seg.ClosingFillUpID] = seg.LPer100.String()
	}

	// WHEN: Walking every page
	got := map[string]string{}
	path := "/api/vehicles/anomaly-astra/fillups?limit=3"
	for {
		rec := do(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decodeBody[FillUpListResponse](t, rec)
		for _, seg := range page.Segments {
			got[seg.ClosingFillUpID] = seg.LPer100.String()
		}
		if page.NextCursor == nil {
			break
		}
		path = "/api/vehicles/anomaly-astra/fillups?limit=3&cursor=" + *page.NextCursor
	}

	// THEN: The pages together carry exactly the unpaged segments
	assert.Equal(t, want, got)
}

func TestScenario_InspectionStates(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "inspection-overdue")

	tests := []struct {
		vehicle string
		state   string
		days    *int
	}{
		{"inspection-van", "overdue", ptr(-12)},
		{"inspection-clio", "dueSoon", ptr(23)},
		{"inspection-bike", "unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.vehicle, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/vehicles/"+tt.vehicle+"/inspection", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			status := decodeBody[InspectionDTO](t, rec)
			assert.Equal(t, tt.state, status.State)
			assert.Equal(t, tt.days, status.DaysRemaining)
		})
	}
}

func TestScenario_CommuterSummary(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "commuter")

	rec := do(t, router, http.MethodGet, "/api/vehicles/commuter-golf/summary?range_days=180", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s := decodeBody[SummaryDTO](t, rec)

	assert.NotEmpty(t, s.Segments)
	assert.True(t, s.Costs.CostPerKmLifetime.IsDefined())
	assert.True(t, s.Consumption.Avg3.IsDefined())
	assert.Equal(t, "ok", s.Inspection.State)
}

func TestResetDatabase(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	loadScenario(t, router, "demo")

	rec := do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/vehicles", nil)
	assert.Empty(t, decodeBody[[]VehicleDTO](t, rec))

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func ptr[T any](v T) *T { return &v }
