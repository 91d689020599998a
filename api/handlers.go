/*
handlers.go - HTTP API handlers for the fuel and cost tracker

PURPOSE:
  Exposes the analytics engine via REST API. Handles HTTP request/response,
  JSON serialization and validation, loads records from the store and
  delegates every computation to the analytics package.

ENDPOINTS:
  Vehicles:
    GET    /api/vehicles                  List vehicles
    POST   /api/vehicles                  Create vehicle
    GET    /api/vehicles/{id}             Get vehicle
    PUT    /api/vehicles/{id}             Replace vehicle (incl. inspection fields)
    DELETE /api/vehicles/{id}             Delete vehicle and its records

  Fill-ups:
    GET    /api/vehicles/{id}/fillups     One page + the segments it closes
    POST   /api/vehicles/{id}/fillups     Record a fill-up
    DELETE /api/vehicles/{id}/fillups/{fillUpId}

  Expenses:
    GET    /api/vehicles/{id}/expenses    List expenses
    POST   /api/vehicles/{id}/expenses    Record an expense
    DELETE /api/vehicles/{id}/expenses/{expenseId}

  Analytics:
    GET    /api/vehicles/{id}/summary     Segments, costs, consumption, inspection
    GET    /api/vehicles/{id}/inspection  Inspection status only
    GET    /api/inspection-alerts         Alerts recorded by the scheduler

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Logger, Metrics: Observability
  - Config: Backfill cap, page sizes, timezone
  - Now: The clock every computation reads, in the configured timezone

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load records from the store
  4. Call the analytics engine with an explicit now
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid cursor, invalid input
  - 404: Vehicle, fill-up or expense not found
  - 500: Internal errors, including a failed backfill fetch

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/warp/fuel-engine/analytics"
	"github.com/warp/fuel-engine/config"
	"github.com/warp/fuel-engine/store/sqlite"
)

// rangeOptions are the chart ranges the summary accepts, 0 meaning all.
var rangeOptions = map[int]bool{0: true, 30: true, 90: true, 180: true}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Logger  *zap.Logger
	Metrics *Metrics
	Config  config.AnalyticsConfig

	// Now is read once per request. Tests replace it with a fixed clock.
	Now func() time.Time

	loc *time.Location

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler whose clock runs in cfg's timezone.
func NewHandler(store *sqlite.Store, logger *zap.Logger, metrics *Metrics, cfg config.AnalyticsConfig) *Handler {
	loc := cfg.Location()
	return &Handler{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		Config:  cfg,
		Now:     func() time.Time { return time.Now().In(loc) },
		loc:     loc,
	}
}

func (h *Handler) now() time.Time {
	return h.Now().In(h.loc)
}

// =============================================================================
// HEALTH
// =============================================================================

// Healthz reports whether the database answers.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// VEHICLE HANDLERS
// =============================================================================

// ListVehicles returns all vehicles.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Store.ListVehicles(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to list vehicles", err)
		return
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v, h.loc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVehicle creates a vehicle.
// POST /api/vehicles
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle", err)
		return
	}

	v, err := h.applyVehicleRequest(analytics.Vehicle{}, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle", err)
		return
	}

	saved, err := h.Store.SaveVehicle(r.Context(), v)
	if err != nil {
		h.handleError(w, r, "Failed to create vehicle", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVehicleDTO(saved, h.loc))
}

// GetVehicle returns one vehicle.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.Store.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Vehicle not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleDTO(v, h.loc))
}

// UpdateVehicle replaces a vehicle's editable fields, including the
// inspection due date and interval.
// PUT /api/vehicles/{id}
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, err := h.Store.GetVehicle(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Vehicle not found", err)
		return
	}

	var req VehicleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle", err)
		return
	}

	v, err := h.applyVehicleRequest(existing, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle", err)
		return
	}

	saved, err := h.Store.SaveVehicle(ctx, v)
	if err != nil {
		h.handleError(w, r, "Failed to update vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleDTO(saved, h.loc))
}

// DeleteVehicle removes a vehicle with everything recorded for it.
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete vehicle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyVehicleRequest(v analytics.Vehicle, req VehicleRequest) (analytics.Vehicle, error) {
	v.Name = req.Name
	v.Make = req.Make
	v.Model = req.Model
	v.Year = req.Year
	v.InspectionIntervalMonths = req.InspectionIntervalMonths
	v.InspectionDueDate = nil

	if req.InspectionDueDate != nil && *req.InspectionDueDate != "" {
		due, err := parseDate(*req.InspectionDueDate, h.loc)
		if err != nil {
			return analytics.Vehicle{}, fmt.Errorf("inspection_due_date: %w", err)
		}
		v.InspectionDueDate = &due
	}
	return v, nil
}

// =============================================================================
// FILL-UP HANDLERS
// =============================================================================

// ListFillUps returns one page of fill-ups, newest first, with the segments
// closed by fill-ups on that page.
// GET /api/vehicles/{id}/fillups?cursor=...&limit=...
func (h *Handler) ListFillUps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID := chi.URLParam(r, "id")

	if _, err := h.Store.GetVehicle(ctx, vehicleID); err != nil {
		h.handleError(w, r, "Vehicle not found", err)
		return
	}

	limit, err := h.pageLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	page, err := h.Store.ListFillUps(ctx, vehicleID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.handleError(w, r, "Failed to list fill-ups", err)
		return
	}

	segments, err := h.resolveSegments(ctx, vehicleID, page.FillUps)
	if err != nil {
		h.handleError(w, r, "Failed to compute segments", err)
		return
	}

	resp := FillUpListResponse{
		FillUps:  toFillUpDTOs(page.FillUps, h.loc),
		Segments: toSegmentDTOs(segments, h.loc),
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveSegments completes the page's oldest segment from older history,
// bounded by the configured cap.
func (h *Handler) resolveSegments(ctx context.Context, vehicleID string, page []analytics.FillUp) ([]analytics.Segment, error) {
	segments, err := analytics.ResolvePagedSegments(ctx, page, h.Store.History(vehicleID), h.Config.BackfillCap)
	switch {
	case err != nil:
		h.Metrics.observeBackfill("failed")
	case h.Config.BackfillCap <= 0:
		h.Metrics.observeBackfill("skipped")
	default:
		h.Metrics.observeBackfill("ok")
	}
	return segments, err
}

func (h *Handler) pageLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.Config.PageSize, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit %q is not a number", raw)
	}
	if limit < 1 || limit > h.Config.MaxPageSize {
		return 0, fmt.Errorf("limit must be between 1 and %d", h.Config.MaxPageSize)
	}
	return limit, nil
}

// CreateFillUp records a fill-up.
// POST /api/vehicles/{id}/fillups
func (h *Handler) CreateFillUp(w http.ResponseWriter, r *http.Request) {
	var req FillUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fill-up", err)
		return
	}

	date, err := parseDate(req.Date, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fill-up", fmt.Errorf("date: %w", err))
		return
	}

	total := req.Liters.Mul(req.PricePerLiter).Round(2)
	if req.TotalCost != nil {
		total = *req.TotalCost
	}

	saved, err := h.Store.SaveFillUp(r.Context(), chi.URLParam(r, "id"), analytics.FillUp{
		Date:          date,
		OdometerKm:    *req.OdometerKm,
		Liters:        req.Liters,
		PricePerLiter: req.PricePerLiter,
		TotalCost:     total,
		IsFull:        *req.IsFull,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(w, r, "Failed to save fill-up", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFillUpDTOs([]analytics.FillUp{saved}, h.loc)[0])
}

// DeleteFillUp removes one fill-up. Segments are derived, so nothing else
// needs updating.
func (h *Handler) DeleteFillUp(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteFillUp(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "fillUpId"))
	if err != nil {
		h.handleError(w, r, "Failed to delete fill-up", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns a vehicle's expenses, oldest first.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID := chi.URLParam(r, "id")

	if _, err := h.Store.GetVehicle(ctx, vehicleID); err != nil {
		h.handleError(w, r, "Vehicle not found", err)
		return
	}

	expenses, err := h.Store.ListExpenses(ctx, vehicleID)
	if err != nil {
		h.handleError(w, r, "Failed to list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses, h.loc))
}

// CreateExpense records an expense. The category is normalized
// ("maintenance " becomes MAINTENANCE) and must be a known one.
// POST /api/vehicles/{id}/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense", err)
		return
	}

	category, ok := analytics.ParseCategory(req.Category)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid expense",
			fmt.Errorf("category %q is not one of %v", req.Category, analytics.Categories))
		return
	}
	date, err := parseDate(req.Date, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense", fmt.Errorf("date: %w", err))
		return
	}

	saved, err := h.Store.SaveExpense(r.Context(), chi.URLParam(r, "id"), analytics.Expense{
		Date:       date,
		Category:   category,
		Amount:     req.Amount,
		Vendor:     req.Vendor,
		OdometerKm: req.OdometerKm,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleError(w, r, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(saved, h.loc))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteExpense(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "expenseId"))
	if err != nil {
		h.handleError(w, r, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GetSummary computes everything the vehicle page shows from the full
// history and a single now.
// GET /api/vehicles/{id}/summary?range_days=0|30|90|180
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rangeDays := 0
	if raw := r.URL.Query().Get("range_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !rangeOptions[n] {
			writeError(w, http.StatusBadRequest, "Invalid range_days",
				errors.New("range_days must be one of 0, 30, 90, 180"))
			return
		}
		rangeDays = n
	}

	v, fillUps, expenses, err := h.loadVehicleRecords(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Failed to load vehicle", err)
		return
	}

	summary := analytics.Summarize(v, fillUps, expenses, h.now(), rangeDays)
	writeJSON(w, http.StatusOK, toSummaryDTO(summary, rangeDays, h.loc))
}

// GetInspection returns the vehicle's inspection status.
// GET /api/vehicles/{id}/inspection
func (h *Handler) GetInspection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := h.Store.GetVehicle(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Vehicle not found", err)
		return
	}
	expenses, err := h.Store.ListExpenses(ctx, v.ID)
	if err != nil {
		h.handleError(w, r, "Failed to load expenses", err)
		return
	}

	status := analytics.ComputeInspectionStatus(v.InspectionFields(), expenses, h.now())
	writeJSON(w, http.StatusOK, toInspectionDTO(status, h.loc))
}

// ListInspectionAlerts returns alerts recorded by the inspection scheduler.
// GET /api/inspection-alerts?vehicle_id=...
func (h *Handler) ListInspectionAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListInspectionAlerts(r.Context(), r.URL.Query().Get("vehicle_id"))
	if err != nil {
		h.handleError(w, r, "Failed to list inspection alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, toInspectionAlertDTOs(alerts, h.loc))
}

func (h *Handler) loadVehicleRecords(ctx context.Context, vehicleID string) (analytics.Vehicle, []analytics.FillUp, []analytics.Expense, error) {
	v, err := h.Store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return analytics.Vehicle{}, nil, nil, err
	}
	fillUps, err := h.Store.AllFillUps(ctx, vehicleID)
	if err != nil {
		return analytics.Vehicle{}, nil, nil, err
	}
	expenses, err := h.Store.ListExpenses(ctx, vehicleID)
	if err != nil {
		return analytics.Vehicle{}, nil, nil, err
	}
	return v, fillUps, expenses, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// handleError maps store and engine errors to a status. Unexpected errors
// are logged with the request id.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case analytics.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case analytics.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
	default:
		h.Logger.Error(message,
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
