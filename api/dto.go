/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  analytics types so field names and formats can evolve independently.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

FORMATS:
  - Dates go out as RFC 3339 in the configured timezone and come in as
    RFC 3339 or YYYY-MM-DD (midnight in the configured timezone)
  - Money and volumes are decimal strings ("41.37"); requests also accept
    JSON numbers
  - Undefined metrics are null, never 0

VALIDATION:
  Request shapes are checked with go-playground/validator struct tags
  (see validate.go). Anything that needs parsing (dates, categories) is
  checked by the handler.

SEE ALSO:
  - handlers.go: Uses these types
  - analytics/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fuel-engine/analytics"
	"github.com/warp/fuel-engine/store/sqlite"
)

// =============================================================================
// VEHICLES
// =============================================================================

type VehicleDTO struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Make                     string  `json:"make,omitempty"`
	Model                    string  `json:"model,omitempty"`
	Year                     int     `json:"year,omitempty"`
	InspectionDueDate        *string `json:"inspection_due_date"`
	InspectionIntervalMonths *int    `json:"inspection_interval_months"`
	CreatedAt                string  `json:"created_at"`
}

// VehicleRequest creates or replaces a vehicle. Omitted inspection fields
// are cleared on update.
type VehicleRequest struct {
	Name                     string  `json:"name" validate:"required,max=100"`
	Make                     string  `json:"make" validate:"max=100"`
	Model                    string  `json:"model" validate:"max=100"`
	Year                     int     `json:"year" validate:"omitempty,gte=1886,lte=2100"`
	InspectionDueDate        *string `json:"inspection_due_date"`
	InspectionIntervalMonths *int    `json:"inspection_interval_months" validate:"omitempty,gte=1,lte=120"`
}

// =============================================================================
// FILL-UPS
// =============================================================================

type FillUpDTO struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	OdometerKm    int             `json:"odometer_km"`
	Liters        decimal.Decimal `json:"liters"`
	PricePerLiter decimal.Decimal `json:"price_per_liter"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	IsFull        bool            `json:"is_full"`
	Notes         string          `json:"notes,omitempty"`
}

// FillUpRequest records a fill-up. When total_cost is omitted it is
// liters × price_per_liter.
type FillUpRequest struct {
	Date          string           `json:"date" validate:"required"`
	OdometerKm    *int             `json:"odometer_km" validate:"required,gte=0"`
	Liters        decimal.Decimal  `json:"liters" validate:"gt=0"`
	PricePerLiter decimal.Decimal  `json:"price_per_liter" validate:"gte=0"`
	TotalCost     *decimal.Decimal `json:"total_cost" validate:"omitempty,gte=0"`
	IsFull        *bool            `json:"is_full" validate:"required"`
	Notes         string           `json:"notes" validate:"max=500"`
}

// FillUpListResponse is one page of the fill-up log plus the segments closed
// by fill-ups on that page.
type FillUpListResponse struct {
	FillUps    []FillUpDTO  `json:"fill_ups"`
	Segments   []SegmentDTO `json:"segments"`
	NextCursor *string      `json:"next_cursor"`
}

type SegmentDTO struct {
	ClosingFillUpID string           `json:"closing_fill_up_id"`
	Date            string           `json:"date"`
	DistanceKm      int              `json:"distance_km"`
	LitersUsed      decimal.Decimal  `json:"liters_used"`
	FuelCost        decimal.Decimal  `json:"fuel_cost"`
	LPer100         decimal.Decimal  `json:"l_per_100km"`
	CostPer100      decimal.Decimal  `json:"cost_per_100km"`
	PrevLPer100     analytics.Number `json:"prev_l_per_100km"`
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Vendor     string          `json:"vendor,omitempty"`
	OdometerKm *int            `json:"odometer_km,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

type ExpenseRequest struct {
	Date       string          `json:"date" validate:"required"`
	Category   string          `json:"category" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0"`
	Vendor     string          `json:"vendor" validate:"max=200"`
	OdometerKm *int            `json:"odometer_km" validate:"omitempty,gte=0"`
	Notes      string          `json:"notes" validate:"max=500"`
}

// =============================================================================
// SUMMARY
// =============================================================================

type SummaryDTO struct {
	VehicleID   string         `json:"vehicle_id"`
	AsOf        string         `json:"as_of"`
	RangeDays   int            `json:"range_days"`
	Segments    []SegmentDTO   `json:"segments"`
	Costs       CostSummaryDTO `json:"costs"`
	Consumption ConsumptionDTO `json:"consumption"`
	Inspection  InspectionDTO  `json:"inspection"`
}

type CostSummaryDTO struct {
	CostPerKmLifetime analytics.Number   `json:"cost_per_km_lifetime"`
	CostPerKm90d      analytics.Number   `json:"cost_per_km_90d"`
	SpendMTD          decimal.Decimal    `json:"spend_mtd"`
	Spend30d          decimal.Decimal    `json:"spend_30d"`
	Breakdown90d      []BreakdownItemDTO `json:"breakdown_90d"`
}

type BreakdownItemDTO struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type ConsumptionDTO struct {
	Count          int              `json:"count"`
	Latest         analytics.Number `json:"latest"`
	Avg3           analytics.Number `json:"avg_3"`
	Avg6           analytics.Number `json:"avg_6"`
	Lifetime       analytics.Number `json:"lifetime"`
	Min            analytics.Number `json:"min"`
	Max            analytics.Number `json:"max"`
	CostPer100Avg3 analytics.Number `json:"cost_per_100km_avg_3"`
}

type InspectionDTO struct {
	State         string  `json:"state"`
	DaysRemaining *int    `json:"days_remaining"`
	DueDate       *string `json:"due_date"`
}

type InspectionAlertDTO struct {
	ID            string `json:"id"`
	VehicleID     string `json:"vehicle_id"`
	DueDate       string `json:"due_date"`
	State         string `json:"state"`
	DaysRemaining int    `json:"days_remaining"`
	CreatedAt     string `json:"created_at"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

func formatTimePtr(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t, loc)
	return &s
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD, which is taken as
// midnight in loc.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, value, loc)
}

func toVehicleDTO(v analytics.Vehicle, loc *time.Location) VehicleDTO {
	return VehicleDTO{
		ID:                       v.ID,
		Name:                     v.Name,
		Make:                     v.Make,
		Model:                    v.Model,
		Year:                     v.Year,
		InspectionDueDate:        formatTimePtr(v.InspectionDueDate, loc),
		InspectionIntervalMonths: v.InspectionIntervalMonths,
		CreatedAt:                formatTime(v.CreatedAt, loc),
	}
}

func toFillUpDTOs(fillUps []analytics.FillUp, loc *time.Location) []FillUpDTO {
	dtos := make([]FillUpDTO, len(fillUps))
	for i, f := range fillUps {
		dtos[i] = FillUpDTO{
			ID:            f.ID,
			Date:          formatTime(f.Date, loc),
			OdometerKm:    f.OdometerKm,
			Liters:        f.Liters,
			PricePerLiter: f.PricePerLiter,
			TotalCost:     f.TotalCost,
			IsFull:        f.IsFull,
			Notes:         f.Notes,
		}
	}
	return dtos
}

func toSegmentDTOs(segments []analytics.Segment, loc *time.Location) []SegmentDTO {
	dtos := make([]SegmentDTO, len(segments))
	for i, s := range segments {
		dtos[i] = SegmentDTO{
			ClosingFillUpID: s.ClosingFillUpID,
			Date:            formatTime(s.Date, loc),
			DistanceKm:      s.DistanceKm,
			LitersUsed:      s.LitersUsed,
			FuelCost:        s.FuelCost,
			LPer100:         s.LPer100.Round(2),
			CostPer100:      s.CostPer100.Round(2),
			PrevLPer100:     roundNumber(s.PrevLPer100, 2),
		}
	}
	return dtos
}

func toExpenseDTOs(expenses []analytics.Expense, loc *time.Location) []ExpenseDTO {
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e, loc)
	}
	return dtos
}

func toExpenseDTO(e analytics.Expense, loc *time.Location) ExpenseDTO {
	return ExpenseDTO{
		ID:         e.ID,
		Date:       formatTime(e.Date, loc),
		Category:   string(e.Category),
		Amount:     e.Amount,
		Vendor:     e.Vendor,
		OdometerKm: e.OdometerKm,
		Notes:      e.Notes,
	}
}

func toInspectionDTO(status analytics.InspectionStatus, loc *time.Location) InspectionDTO {
	dto := InspectionDTO{
		State:         string(status.State),
		DaysRemaining: status.DaysRemaining,
	}
	if status.DueDate != nil {
		due := status.DueDate.In(loc).Format(time.DateOnly)
		dto.DueDate = &due
	}
	return dto
}

func toSummaryDTO(s analytics.VehicleSummary, rangeDays int, loc *time.Location) SummaryDTO {
	breakdown := make([]BreakdownItemDTO, len(s.Costs.Breakdown90d))
	for i, item := range s.Costs.Breakdown90d {
		breakdown[i] = BreakdownItemDTO{Label: string(item.Label), Amount: item.Amount}
	}
	c := s.Consumption

	return SummaryDTO{
		VehicleID: s.VehicleID,
		AsOf:      formatTime(s.AsOf, loc),
		RangeDays: rangeDays,
		Segments:  toSegmentDTOs(s.Segments, loc),
		Costs: CostSummaryDTO{
			CostPerKmLifetime: roundNumber(s.Costs.CostPerKmLifetime, 4),
			CostPerKm90d:      roundNumber(s.Costs.CostPerKm90d, 4),
			SpendMTD:          s.Costs.SpendMTD,
			Spend30d:          s.Costs.Spend30d,
			Breakdown90d:      breakdown,
		},
		Consumption: ConsumptionDTO{
			Count:          c.Count,
			Latest:         roundNumber(c.Latest, 2),
			Avg3:           roundNumber(c.Avg3, 2),
			Avg6:           roundNumber(c.Avg6, 2),
			Lifetime:       roundNumber(c.Lifetime, 2),
			Min:            roundNumber(c.Min, 2),
			Max:            roundNumber(c.Max, 2),
			CostPer100Avg3: roundNumber(c.CostPer100Avg3, 2),
		},
		Inspection: toInspectionDTO(s.Inspection, loc),
	}
}

func toInspectionAlertDTOs(alerts []sqlite.InspectionAlert, loc *time.Location) []InspectionAlertDTO {
	dtos := make([]InspectionAlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = InspectionAlertDTO{
			ID:            a.ID,
			VehicleID:     a.VehicleID,
			DueDate:       a.DueDate.In(loc).Format(time.DateOnly),
			State:         string(a.State),
			DaysRemaining: a.DaysRemaining,
			CreatedAt:     formatTime(a.CreatedAt, loc),
		}
	}
	return dtos
}

// roundNumber rounds for display only; the engine keeps full precision.
func roundNumber(n analytics.Number, places int32) analytics.Number {
	d, ok := n.Decimal()
	if !ok {
		return analytics.Undefined
	}
	return analytics.Defined(d.Round(places))
}
