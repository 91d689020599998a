/*
costs.go - Windowed cost and spend aggregation

PURPOSE:
  Answers "what does this car cost me?" from segments, fill-ups and expenses.

METRICS:
  CostPerKmLifetime: (Σ segment fuel cost + Σ non-FUEL expenses) / Σ distance
  CostPerKm90d:      same, restricted to the last 90 days
  SpendMTD:          fill-up cost + expenses since the 1st of now's month
  Spend30d:          fill-up cost + expenses in the last 30 days (rolling)
  Breakdown90d:      Fuel / Maintenance / Other buckets over the last 90 days

FUEL DOUBLE COUNTING:
  Fill-ups are the authoritative fuel spend. Cost-per-km and the breakdown
  skip FUEL-category expenses so a receipt logged both ways is not counted
  twice. Spend totals include every expense as recorded.

WINDOWS:
  A window includes records dated at or after its lower bound and has no
  upper bound. "Month" is the calendar month in now's location.
*/
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CostWindowDays  = 90
	SpendWindowDays = 30
)

type BreakdownLabel string

const (
	BreakdownFuel        BreakdownLabel = "Fuel"
	BreakdownMaintenance BreakdownLabel = "Maintenance"
	BreakdownOther       BreakdownLabel = "Other"
)

type BreakdownItem struct {
	Label  BreakdownLabel
	Amount decimal.Decimal
}

// CostSummary is the result of AggregateCosts. Cost-per-km values are
// Undefined when no distance was driven in their window.
type CostSummary struct {
	CostPerKmLifetime Number
	CostPerKm90d      Number
	SpendMTD          decimal.Decimal
	Spend30d          decimal.Decimal
	Breakdown90d      []BreakdownItem
}

// AggregateCosts computes every cost metric relative to now.
func AggregateCosts(segments []Segment, expenses []Expense, fillUps []FillUp, now time.Time) CostSummary {
	return CostSummary{
		CostPerKmLifetime: CostPerKmLifetime(segments, expenses),
		CostPerKm90d:      CostPerKmSince(segments, expenses, DaysAgo(now, CostWindowDays)),
		SpendMTD:          SpendMonthToDate(fillUps, expenses, now),
		Spend30d:          SpendSince(fillUps, expenses, DaysAgo(now, SpendWindowDays)),
		Breakdown90d:      Breakdown(fillUps, expenses, DaysAgo(now, CostWindowDays)),
	}
}

// CostPerKmLifetime uses every segment and every non-fuel expense.
func CostPerKmLifetime(segments []Segment, expenses []Expense) Number {
	return costPerKm(segments, expenses, time.Time{})
}

// CostPerKmSince only counts segments and non-fuel expenses dated on or
// after since.
func CostPerKmSince(segments []Segment, expenses []Expense, since time.Time) Number {
	return costPerKm(segments, expenses, since)
}

// costPerKm treats a zero since as "no lower bound".
func costPerKm(segments []Segment, expenses []Expense, since time.Time) Number {
	cost, km := decimal.Zero, decimal.Zero
	for _, s := range segments {
		if inWindow(s.Date, since) {
			cost = cost.Add(s.FuelCost)
			km = km.Add(decimal.NewFromInt(int64(s.DistanceKm)))
		}
	}
	for _, e := range expenses {
		if e.Category != CategoryFuel && inWindow(e.Date, since) {
			cost = cost.Add(e.Amount)
		}
	}
	return divide(cost, km)
}

// SpendMonthToDate sums from local midnight of the first day of now's month.
func SpendMonthToDate(fillUps []FillUp, expenses []Expense, now time.Time) decimal.Decimal {
	return SpendSince(fillUps, expenses, StartOfMonth(now))
}

// SpendSince sums fill-up totals and expense amounts dated on or after since.
func SpendSince(fillUps []FillUp, expenses []Expense, since time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fillUps {
		if inWindow(f.Date, since) {
			total = total.Add(f.TotalCost)
		}
	}
	for _, e := range expenses {
		if inWindow(e.Date, since) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Breakdown splits spend since `since` into Fuel (fill-ups), Maintenance and
// Other (every category except FUEL and MAINTENANCE). Items are always
// returned in that order, zero amounts included.
func Breakdown(fillUps []FillUp, expenses []Expense, since time.Time) []BreakdownItem {
	fuel, maintenance, other := decimal.Zero, decimal.Zero, decimal.Zero
	for _, f := range fillUps {
		if inWindow(f.Date, since) {
			fuel = fuel.Add(f.TotalCost)
		}
	}
	for _, e := range expenses {
		if !inWindow(e.Date, since) {
			continue
		}
		switch e.Category {
		case CategoryFuel:
		case CategoryMaintenance:
			maintenance = maintenance.Add(e.Amount)
		default:
			other = other.Add(e.Amount)
		}
	}
	return []BreakdownItem{
		{Label: BreakdownFuel, Amount: fuel},
		{Label: BreakdownMaintenance, Amount: maintenance},
		{Label: BreakdownOther, Amount: other},
	}
}

func inWindow(date, since time.Time) bool {
	return since.IsZero() || !date.Before(since)
}
