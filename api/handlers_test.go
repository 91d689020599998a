/*
handlers_test.go - HTTP tests for the API handlers

Tests run the real router against an in-memory SQLite store with a pinned
clock, so every date-relative figure is reproducible.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-engine/analytics"
	"github.com/warp/fuel-engine/config"
	"github.com/warp/fuel-engine/logging"
	"github.com/warp/fuel-engine/store/sqlite"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{BackfillCap: 200, PageSize: 20, MaxPageSize: 100, Timezone: "UTC"}
}

func setupTestHandler(t *testing.T, cfg config.AnalyticsConfig) (*Handler, http.Handler) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := NewMetrics()
	h := NewHandler(store, logging.Nop(), metrics, cfg)
	h.Now = func() time.Time { return testNow }
	return h, NewRouter(h, metrics, []string{"http://localhost:5173"})
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createVehicle(t *testing.T, router http.Handler, name string) VehicleDTO {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/vehicles", map[string]any{"name": name, "make": "Seat", "year": 2017})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[VehicleDTO](t, rec)
}

func createFillUp(t *testing.T, router http.Handler, vehicleID, date string, odometer int, liters string, full bool) FillUpDTO {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/vehicles/"+vehicleID+"/fillups", map[string]any{
		"date":            date,
		"odometer_km":     odometer,
		"liters":          liters,
		"price_per_liter": "1.50",
		"is_full":         full,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[FillUpDTO](t, rec)
}

// fiveFullTanks records full fill-ups on June 1-5 whose segments run at
// 6, 7, 5 and 8 L/100km.
func fiveFullTanks(t *testing.T, router http.Handler, vehicleID string) []FillUpDTO {
	t.Helper()
	return []FillUpDTO{
		createFillUp(t, router, vehicleID, "2024-06-01", 1000, "40", true),
		createFillUp(t, router, vehicleID, "2024-06-02", 1500, "30", true),
		createFillUp(t, router, vehicleID, "2024-06-03", 2000, "35", true),
		createFillUp(t, router, vehicleID, "2024-06-04", 2500, "25", true),
		createFillUp(t, router, vehicleID, "2024-06-05", 3000, "40", true),
	}
}

func segmentRates(segments []SegmentDTO) []string {
	rates := make([]string, len(segments))
	for i, s := range segments {
		rates[i] = s.LPer100.StringFixed(2)
	}
	return rates
}

// =============================================================================
// VEHICLES
// =============================================================================

func TestHealthz(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())

	rec := do(t, router, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVehicleLifecycle(t *testing.T) {
	// GIVEN: A new vehicle
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Family car")
	require.NotEmpty(t, v.ID)
	assert.Nil(t, v.InspectionDueDate)

	// WHEN: The inspection due date is set
	rec := do(t, router, http.MethodPut, "/api/vehicles/"+v.ID, map[string]any{
		"name":                "Family car",
		"make":                "Seat",
		"model":               "Leon",
		"year":                2017,
		"inspection_due_date": "2024-07-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[VehicleDTO](t, rec)

	// THEN: It is stored and drives the inspection status
	assert.Equal(t, "Leon", updated.Model)
	require.NotNil(t, updated.InspectionDueDate)
	assert.Equal(t, "2024-07-01T00:00:00Z", *updated.InspectionDueDate)

	rec = do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/inspection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[InspectionDTO](t, rec)
	assert.Equal(t, "dueSoon", status.State)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, 16, *status.DaysRemaining)
	assert.Equal(t, "2024-07-01", *status.DueDate)

	rec = do(t, router, http.MethodGet, "/api/vehicles", nil)
	assert.Len(t, decodeBody[[]VehicleDTO](t, rec), 1)

	// AND: Deleting removes it
	rec = do(t, router, http.MethodDelete, "/api/vehicles/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/vehicles/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateVehicle_Validation(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"make":"Seat"}`},
		{"year too old", `{"name":"Old","year":1800}`},
		{"unknown field", `{"name":"Car","colour":"red"}`},
		{"malformed JSON", `{"name":`},
		{"bad due date", `{"name":"Car","inspection_due_date":"next week"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/vehicles", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, "Invalid vehicle", resp.Error)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestValidationErrors_UseJSONFieldNames(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")

	rec := do(t, router, http.MethodPost, "/api/vehicles/"+v.ID+"/fillups",
		`{"date":"2024-06-01","odometer_km":100,"liters":"-1","price_per_liter":"1.5","is_full":true}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "liters")
}

// =============================================================================
// FILL-UPS
// =============================================================================

func TestCreateFillUp(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")

	t.Run("total defaults to liters times price", func(t *testing.T) {
		f := createFillUp(t, router, v.ID, "2024-06-01T08:30:00Z", 1000, "42.37", true)

		assert.True(t, f.TotalCost.Equal(decimal.RequireFromString("63.56")), f.TotalCost.String())
		assert.Equal(t, "2024-06-01T08:30:00Z", f.Date)
	})

	t.Run("explicit total is kept", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/vehicles/"+v.ID+"/fillups", map[string]any{
			"date": "2024-06-02", "odometer_km": 1400, "liters": "30",
			"price_per_liter": "1.50", "total_cost": "40.00", "is_full": false,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		f := decodeBody[FillUpDTO](t, rec)
		assert.True(t, f.TotalCost.Equal(decimal.RequireFromString("40")))
		assert.False(t, f.IsFull)
	})

	t.Run("is_full is required", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/vehicles/"+v.ID+"/fillups",
			`{"date":"2024-06-03","odometer_km":1500,"liters":"10","price_per_liter":"1.5"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/vehicles/nope/fillups", map[string]any{
			"date": "2024-06-03", "odometer_km": 1500, "liters": "10", "price_per_liter": "1.5", "is_full": true,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListFillUps_PagesCarryCompleteSegments(t *testing.T) {
	// GIVEN: Five full tanks, listed two per page
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	f := fiveFullTanks(t, router, v.ID)
	base := "/api/vehicles/" + v.ID + "/fillups?limit=2"

	// WHEN: Walking every page
	rec := do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page1 := decodeBody[FillUpListResponse](t, rec)

	require.NotNil(t, page1.NextCursor)
	rec = do(t, router, http.MethodGet, base+"&cursor="+*page1.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page2 := decodeBody[FillUpListResponse](t, rec)

	require.NotNil(t, page2.NextCursor)
	rec = do(t, router, http.MethodGet, base+"&cursor="+*page2.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page3 := decodeBody[FillUpListResponse](t, rec)

	// THEN: Each page's oldest segment is completed from older history
	assert.Equal(t, []string{f[4].ID, f[3].ID}, []string{page1.FillUps[0].ID, page1.FillUps[1].ID})
	assert.Equal(t, []string{"5.00", "8.00"}, segmentRates(page1.Segments))
	assert.Equal(t, f[3].ID, page1.Segments[0].ClosingFillUpID)
	assert.True(t, page1.Segments[1].PrevLPer100.Equal(analytics.Defined(decimal.NewFromInt(5))))

	assert.Equal(t, []string{"6.00", "7.00"}, segmentRates(page2.Segments))
	assert.False(t, page2.Segments[0].PrevLPer100.IsDefined())

	// AND: The last page has no cursor and nothing to close
	require.Len(t, page3.FillUps, 1)
	assert.Equal(t, f[0].ID, page3.FillUps[0].ID)
	assert.Empty(t, page3.Segments)
	assert.Nil(t, page3.NextCursor)
	assert.Contains(t, rec.Body.String(), `"next_cursor":null`)
}

func TestListFillUps_BackfillDisabled(t *testing.T) {
	// GIVEN: A handler with backfill turned off
	cfg := testAnalyticsConfig()
	cfg.BackfillCap = 0
	_, router := setupTestHandler(t, cfg)
	v := createVehicle(t, router, "Car")
	fiveFullTanks(t, router, v.ID)

	// WHEN: Listing the first page
	rec := do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/fillups?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Only the segment whose opening tank is on the page is returned
	page := decodeBody[FillUpListResponse](t, rec)
	assert.Equal(t, []string{"8.00"}, segmentRates(page.Segments))
}

func TestListFillUps_BadRequests(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	fiveFullTanks(t, router, v.ID)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"zero limit", "?limit=0", http.StatusBadRequest},
		{"limit above max", "?limit=101", http.StatusBadRequest},
		{"non-numeric limit", "?limit=ten", http.StatusBadRequest},
		{"unknown cursor", "?cursor=missing", http.StatusBadRequest},
		{"default limit", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/fillups"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, router, http.MethodGet, "/api/vehicles/nope/fillups", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFillUp(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	f := fiveFullTanks(t, router, v.ID)

	rec := do(t, router, http.MethodDelete, "/api/vehicles/"+v.ID+"/fillups/"+f[2].ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The 1500 -> 2500 segment now spans the deleted tank's distance.
	rec = do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/fillups", nil)
	page := decodeBody[FillUpListResponse](t, rec)
	assert.Len(t, page.FillUps, 4)
	assert.Equal(t, []string{"6.00", "2.50", "8.00"}, segmentRates(page.Segments))

	rec = do(t, router, http.MethodDelete, "/api/vehicles/"+v.ID+"/fillups/"+f[2].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// EXPENSES
// =============================================================================

func TestExpenses(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	path := "/api/vehicles/" + v.ID + "/expenses"

	t.Run("category is normalized", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, path, map[string]any{
			"date": "2024-06-10", "category": " maintenance ", "amount": "100.00", "vendor": "City Garage",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "MAINTENANCE", decodeBody[ExpenseDTO](t, rec).Category)
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, path, map[string]any{
			"date": "2024-06-10", "category": "SNACKS", "amount": "3.00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative amount", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, path, map[string]any{
			"date": "2024-06-10", "category": "TOLL", "amount": "-3.00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := do(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	expenses := decodeBody[[]ExpenseDTO](t, rec)
	require.Len(t, expenses, 1)

	rec = do(t, router, http.MethodDelete, path+"/"+expenses[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, path, nil)
	assert.Empty(t, decodeBody[[]ExpenseDTO](t, rec))
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestGetSummary(t *testing.T) {
	// GIVEN: Five full tanks and one maintenance bill, all in June
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	fiveFullTanks(t, router, v.ID)
	rec := do(t, router, http.MethodPost, "/api/vehicles/"+v.ID+"/expenses", map[string]any{
		"date": "2024-06-10", "category": "MAINTENANCE", "amount": "100", "vendor": "City Garage",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Requesting the 30-day summary
	rec = do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/summary?range_days=30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := decodeBody[SummaryDTO](t, rec)

	// THEN: Every figure is computed from the same now
	assert.Equal(t, "2024-06-15T12:00:00Z", s.AsOf)
	assert.Equal(t, 30, s.RangeDays)
	assert.Equal(t, []string{"6.00", "7.00", "5.00", "8.00"}, segmentRates(s.Segments))

	c := s.Consumption
	assert.Equal(t, 4, c.Count)
	assert.Equal(t, "8", c.Latest.String())
	assert.Equal(t, "6.67", c.Avg3.String())
	assert.Equal(t, "6.5", c.Lifetime.String())
	assert.Equal(t, "5", c.Min.String())

	// Month to date: 255 on fill-ups plus the 100 bill. Per km: the four
	// segments cost 195, plus 100, over 2000 km.
	assert.True(t, s.Costs.SpendMTD.Equal(decimal.NewFromInt(355)), s.Costs.SpendMTD.String())
	assert.Equal(t, "0.1475", s.Costs.CostPerKmLifetime.String())
	require.Len(t, s.Costs.Breakdown90d, 3)
	assert.Equal(t, "Fuel", s.Costs.Breakdown90d[0].Label)

	assert.Equal(t, "unknown", s.Inspection.State)
	assert.Nil(t, s.Inspection.DaysRemaining)
	assert.Contains(t, rec.Body.String(), `"days_remaining":null`)
}

func TestGetSummary_EmptyVehicle(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")

	rec := do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	s := decodeBody[SummaryDTO](t, rec)
	assert.Empty(t, s.Segments)
	assert.False(t, s.Costs.CostPerKmLifetime.IsDefined())
	assert.False(t, s.Consumption.Avg3.IsDefined())
	assert.Contains(t, rec.Body.String(), `"cost_per_km_lifetime":null`)
}

func TestGetSummary_RangeDays(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")

	for _, days := range []int{0, 30, 90, 180} {
		rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/vehicles/%s/summary?range_days=%d", v.ID, days), nil)
		assert.Equal(t, http.StatusOK, rec.Code, "range_days=%d", days)
	}
	for _, raw := range []string{"45", "-30", "all"} {
		rec := do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/summary?range_days="+raw, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "range_days=%s", raw)
	}

	rec := do(t, router, http.MethodGet, "/api/vehicles/nope/summary", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

func TestMetricsEndpoint(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())
	v := createVehicle(t, router, "Car")
	do(t, router, http.MethodGet, "/api/vehicles/"+v.ID+"/fillups", nil)

	rec := do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `fuel_engine_http_requests_total{method="POST"`)
	assert.Contains(t, body, `fuel_engine_segments_backfill_total{result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	_, router := setupTestHandler(t, testAnalyticsConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/vehicles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
