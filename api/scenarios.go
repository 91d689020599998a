/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	vehicle histories. Each scenario creates vehicles, fill-ups and expenses
	that exercise a specific part of the analytics.

AVAILABLE SCENARIOS:

	commuter:            Six months of regular fill-ups, mixed expenses
	anomalies:           Odometer typo, leading partial, equal timestamps
	inspection-overdue:  One vehicle overdue, one due soon, one unknown
	demo:                The two public demo vehicles

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create vehicles
 3. Add fill-ups and expenses dated relative to the handler's clock

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "commuter"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and its clock
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/fuel-engine/analytics"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "commuter",
		Name:        "Daily Commuter",
		Description: "Six months of fortnightly fill-ups with a few partials and everyday expenses",
	},
	{
		ID:          "anomalies",
		Name:        "Data Anomalies",
		Description: "Partial before the first full tank, an odometer typo and two fill-ups at the same minute",
	},
	{
		ID:          "inspection-overdue",
		Name:        "Inspection Deadlines",
		Description: "One vehicle past its inspection date, one due within 30 days, one with no data",
	},
	{
		ID:          "demo",
		Name:        "Public Demo",
		Description: "Toyota Corolla and Tesla Model 3 with one fill-up and one expense each",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context, time.Time) error
	switch req.ScenarioID {
	case "commuter":
		load = h.loadCommuterScenario
	case "anomalies":
		load = h.loadAnomaliesScenario
	case "inspection-overdue":
		load = h.loadInspectionScenario
	case "demo":
		load = h.loadDemoScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx, analytics.StartOfDay(h.now())); err != nil {
		h.handleError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadCommuterScenario: one car, a full tank every two weeks with every
// fourth stop a partial top-up.
func (h *Handler) loadCommuterScenario(ctx context.Context, today time.Time) error {
	interval := 12
	v, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID:                       "commuter-golf",
		Name:                     "Daily Commuter",
		Make:                     "Volkswagen",
		Model:                    "Golf",
		Year:                     2018,
		InspectionIntervalMonths: &interval,
	})
	if err != nil {
		return err
	}

	const stops = 14
	odometer := 61200
	for i := 0; i < stops; i++ {
		partial := i%4 == 3
		liters := decimal.New(380+int64(i%5)*15, -1) // 38.0 .. 44.0
		km := 600 + (i%3)*35
		if partial {
			liters = decimal.New(185+int64(i%3)*10, -1)
			km = 280
		}
		price := decimal.New(162+int64(i%6)*3, -2) // 1.62 .. 1.77

		f := analytics.FillUp{
			ID:            fmt.Sprintf("commuter-f%02d", i),
			Date:          today.AddDate(0, 0, -13*(stops-1-i)).Add(7*time.Hour + 45*time.Minute),
			OdometerKm:    odometer,
			Liters:        liters,
			PricePerLiter: price,
			TotalCost:     liters.Mul(price).Round(2),
			IsFull:        !partial,
		}
		if _, err := h.Store.SaveFillUp(ctx, v.ID, f); err != nil {
			return err
		}
		odometer += km
	}

	expenses := []analytics.Expense{
		expenseAt(today, -170, analytics.CategoryMaintenance, "189.90", "City Garage", "Oil and filters"),
		expenseAt(today, -150, analytics.CategoryInsurance, "412.00", "SafeInsure", "Annual premium"),
		expenseAt(today, -95, analytics.CategoryTax, "128.00", "", "Road tax"),
		expenseAt(today, -60, analytics.CategoryMaintenance, "55.00", "TestCenter", "Annual inspection"),
		expenseAt(today, -40, analytics.CategoryToll, "14.30", "A-7", ""),
		expenseAt(today, -21, analytics.CategoryParking, "36.00", "Central Parking", "Monthly pass"),
		expenseAt(today, -12, analytics.CategoryFuel, "9.80", "", "Jerrycan"),
		expenseAt(today, -3, analytics.CategoryOther, "24.99", "", "Car wash"),
	}
	return h.saveExpenses(ctx, v.ID, expenses)
}

// loadAnomaliesScenario covers the records segment building has to skip.
func (h *Handler) loadAnomaliesScenario(ctx context.Context, today time.Time) error {
	v, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID:    "anomaly-astra",
		Name:  "Second-hand Astra",
		Make:  "Opel",
		Model: "Astra",
		Year:  2012,
	})
	if err != nil {
		return err
	}

	at := func(daysAgo, hour int) time.Time {
		return today.AddDate(0, 0, -daysAgo).Add(time.Duration(hour) * time.Hour)
	}
	sameMinute := at(30, 18)

	fillUps := []analytics.FillUp{
		// Partial before any full tank: never part of a segment.
		fillUpAt("anomaly-f01", at(120, 9), 143000, "15.00", "1.70", false, "Bought with an empty tank"),
		fillUpAt("anomaly-f02", at(110, 9), 143210, "46.50", "1.69", true, ""),
		fillUpAt("anomaly-f03", at(95, 9), 143890, "41.20", "1.72", true, ""),
		// Odometer typed as 134... instead of 144...: negative distance.
		fillUpAt("anomaly-f04", at(80, 9), 134520, "40.10", "1.74", true, "Odometer typo"),
		fillUpAt("anomaly-f05", at(65, 9), 145180, "43.00", "1.71", true, ""),
		fillUpAt("anomaly-f06", at(50, 9), 145500, "18.40", "1.68", false, ""),
		fillUpAt("anomaly-f07", at(45, 9), 145820, "24.60", "1.66", true, ""),
		// Two pumps at the same minute; storage order decides.
		fillUpAt("anomaly-f08", sameMinute, 146450, "20.00", "1.65", false, "Pump 3"),
		fillUpAt("anomaly-f09", sameMinute, 146450, "22.30", "1.65", true, "Pump 3 again"),
		fillUpAt("anomaly-f10", at(10, 9), 147100, "44.80", "1.67", true, ""),
	}
	for _, f := range fillUps {
		if _, err := h.Store.SaveFillUp(ctx, v.ID, f); err != nil {
			return err
		}
	}

	return h.saveExpenses(ctx, v.ID, []analytics.Expense{
		expenseAt(today, -100, analytics.CategoryMaintenance, "340.00", "Tyre Shop", "Four tyres"),
		expenseAt(today, -5, analytics.CategoryParking, "4.50", "", ""),
	})
}

// loadInspectionScenario sets up one vehicle in each inspection state the
// scheduler alerts on, plus one it cannot classify.
func (h *Handler) loadInspectionScenario(ctx context.Context, today time.Time) error {
	overdueDate := today.AddDate(0, 0, -12)
	overdue, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID:                "inspection-van",
		Name:              "Delivery Van",
		Make:              "Ford",
		Model:             "Transit",
		Year:              2016,
		InspectionDueDate: &overdueDate,
	})
	if err != nil {
		return err
	}
	if _, err := h.Store.SaveFillUp(ctx, overdue.ID,
		fillUpAt("inspection-van-f1", today.AddDate(0, 0, -20), 210400, "70.00", "1.59", true, "")); err != nil {
		return err
	}

	// Last inspection 11 months and a week ago with the default 12-month
	// interval leaves a bit over three weeks.
	interval := 12
	dueSoon, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID:                       "inspection-clio",
		Name:                     "City Car",
		Make:                     "Renault",
		Model:                    "Clio",
		Year:                     2019,
		InspectionIntervalMonths: &interval,
	})
	if err != nil {
		return err
	}
	lastInspection := analytics.AddMonths(today, -11).AddDate(0, 0, -7)
	if err := h.saveExpenses(ctx, dueSoon.ID, []analytics.Expense{{
		ID:       "inspection-clio-e1",
		Date:     lastInspection,
		Category: analytics.CategoryMaintenance,
		Amount:   decimal.RequireFromString("48.00"),
		Vendor:   "ITV Station",
		Notes:    "Periodic inspection passed",
	}}); err != nil {
		return err
	}

	_, err = h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID:   "inspection-bike",
		Name: "Weekend Motorbike",
		Make: "Honda",
		Year: 2020,
	})
	return err
}

// loadDemoScenario loads the public demo fleet.
func (h *Handler) loadDemoScenario(ctx context.Context, today time.Time) error {
	corolla, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID: "demo-1", Name: "Toyota Corolla", Make: "Toyota", Model: "Corolla", Year: 2015,
	})
	if err != nil {
		return err
	}
	tesla, err := h.Store.SaveVehicle(ctx, analytics.Vehicle{
		ID: "demo-2", Name: "Tesla Model 3", Make: "Tesla", Model: "Model 3", Year: 2021,
	})
	if err != nil {
		return err
	}

	if _, err := h.Store.SaveFillUp(ctx, corolla.ID, fillUpAt("demo-f1",
		today.AddDate(0, 0, -14), 85000, "40.2", "1.45", true, "Highway trip")); err != nil {
		return err
	}
	if _, err := h.Store.SaveFillUp(ctx, tesla.ID, fillUpAt("demo-f2",
		today.AddDate(0, 0, -7), 12000, "20.0", "0.25", true, "Supercharger equivalent (mock)")); err != nil {
		return err
	}

	if err := h.saveExpenses(ctx, corolla.ID, []analytics.Expense{
		expenseAt(today, -25, analytics.CategoryMaintenance, "120.00", "OilChange Co.", ""),
	}); err != nil {
		return err
	}
	return h.saveExpenses(ctx, tesla.ID, []analytics.Expense{
		expenseAt(today, -17, analytics.CategoryInsurance, "65.50", "SafeInsure", ""),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveExpenses(ctx context.Context, vehicleID string, expenses []analytics.Expense) error {
	for i, e := range expenses {
		if e.ID == "" {
			e.ID = fmt.Sprintf("%s-e%02d", vehicleID, i+1)
		}
		if _, err := h.Store.SaveExpense(ctx, vehicleID, e); err != nil {
			return err
		}
	}
	return nil
}

func fillUpAt(id string, at time.Time, odometer int, liters, price string, full bool, notes string) analytics.FillUp {
	l := decimal.RequireFromString(liters)
	p := decimal.RequireFromString(price)
	return analytics.FillUp{
		ID:            id,
		Date:          at,
		OdometerKm:    odometer,
		Liters:        l,
		PricePerLiter: p,
		TotalCost:     l.Mul(p).Round(2),
		IsFull:        full,
		Notes:         notes,
	}
}

func expenseAt(today time.Time, days int, category analytics.Category, amount, vendor, notes string) analytics.Expense {
	return analytics.Expense{
		Date:     today.AddDate(0, 0, days).Add(12 * time.Hour),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Vendor:   vendor,
		Notes:    notes,
	}
}
