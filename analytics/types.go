/*
Package analytics provides the fuel and cost analytics engine.

PURPOSE:
  Turns a chronological log of fuel fill-ups and miscellaneous expenses into
  consumption segments, cost metrics and an inspection status. Every function
  in this package is pure: inputs in, results out, with "now" always passed
  explicitly. Storage, HTTP and rendering live elsewhere and only hand plain
  records to this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - FillUp:   A refueling event (full tank or partial)
  - Expense:  A non-fuel-pump cost (maintenance, insurance, tolls, ...)
  - Category: The closed set of expense categories
  - Segment:  Derived consumption between two consecutive full tanks
  - Vehicle:  The vehicle row, of which the core reads the inspection fields

DESIGN PRINCIPLES:
  1. Precision: volumes and money use decimal.Decimal, never float64
  2. Determinism: same inputs (including now) give identical outputs
  3. Totality: undefined results are Undefined, never zero, never a panic
  4. Read-only: records passed in are never mutated

SEE ALSO:
  - segments.go: BuildSegments
  - backfill.go: ResolvePagedSegments
  - costs.go: AggregateCosts
  - inspection.go: ComputeInspectionStatus
*/
package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILL-UP - A single refueling event
// =============================================================================

// FillUp is a refueling record. TotalCost is supplied by the user and is not
// required to equal Liters × PricePerLiter.
type FillUp struct {
	ID            string
	Date          time.Time
	OdometerKm    int
	Liters        decimal.Decimal
	PricePerLiter decimal.Decimal
	TotalCost     decimal.Decimal
	IsFull        bool
	Notes         string
}

// FillUpPage is one cursor-paginated window of fill-ups, newest first.
// NextCursor is empty on the last page.
type FillUpPage struct {
	FillUps    []FillUp
	NextCursor string
}

// =============================================================================
// EXPENSE - Anything paid for the vehicle besides the fill-up itself
// =============================================================================

type Category string

const (
	CategoryFuel        Category = "FUEL"
	CategoryMaintenance Category = "MAINTENANCE"
	CategoryInsurance   Category = "INSURANCE"
	CategoryTax         Category = "TAX"
	CategoryParking     Category = "PARKING"
	CategoryToll        Category = "TOLL"
	CategoryOther       Category = "OTHER"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFuel,
	CategoryMaintenance,
	CategoryInsurance,
	CategoryTax,
	CategoryParking,
	CategoryToll,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory trims and upper-cases s. The second result is false when s is
// empty or not a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if c == "" || !c.Valid() {
		return "", false
	}
	return c, true
}

type Expense struct {
	ID         string
	Date       time.Time
	Category   Category
	Amount     decimal.Decimal
	Vendor     string
	OdometerKm *int
	Notes      string
}

// =============================================================================
// SEGMENT - Consumption between two full tanks (derived, never stored)
// =============================================================================

// Segment covers the distance driven between two consecutive full fill-ups.
// LitersUsed and FuelCost include every partial fill in between plus the
// closing full fill.
type Segment struct {
	ClosingFillUpID string
	Date            time.Time
	DistanceKm      int
	LitersUsed      decimal.Decimal
	FuelCost        decimal.Decimal
	LPer100         decimal.Decimal
	CostPer100      decimal.Decimal

	// PrevLPer100 is the preceding segment's LPer100, Undefined for the first.
	PrevLPer100 Number
}

// =============================================================================
// VEHICLE
// =============================================================================

type Vehicle struct {
	ID    string
	Name  string
	Make  string
	Model string
	Year  int

	InspectionDueDate        *time.Time
	InspectionIntervalMonths *int

	CreatedAt time.Time
}

// InspectionFields returns the subset of the vehicle the inspection
// calculator reads. LastInspectionDate is left for the expense heuristic.
func (v Vehicle) InspectionFields() InspectionFields {
	return InspectionFields{
		InspectionDueDate:        v.InspectionDueDate,
		InspectionIntervalMonths: v.InspectionIntervalMonths,
	}
}
