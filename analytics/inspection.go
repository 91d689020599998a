/*
inspection.go - Periodic vehicle inspection due date and status

PURPOSE:
  Tells the owner when the next roadworthiness inspection (ITV, MOT, TÜV,
  contrôle technique, ...) is due and whether it is overdue.

DUE DATE RESOLUTION (first match wins):
  1. The vehicle's explicit inspection due date
  2. Last inspection date + interval months (12 when unset or not positive)
  3. Unknown

STATUS:
  unknown  no due date
  overdue  due date before today
  dueSoon  due within the next 30 days (today included)
  ok       otherwise

  The status is recomputed from scratch on every call; there is no stored
  state and no transition history.

LAST INSPECTION HEURISTIC:
  When the vehicle does not carry a last inspection date, it is guessed from
  expenses whose vendor or notes mention an inspection keyword. This is
  free-text matching and can misfire ("mot" also matches "motor oil"); it is
  kept deliberately simple and best-effort.
*/
package analytics

import (
	"regexp"
	"time"
)

type InspectionState string

const (
	InspectionUnknown InspectionState = "unknown"
	InspectionOK      InspectionState = "ok"
	InspectionDueSoon InspectionState = "dueSoon"
	InspectionOverdue InspectionState = "overdue"
)

const (
	DefaultInspectionIntervalMonths = 12

	// DueSoonDays is the largest days-remaining still classified dueSoon.
	DueSoonDays = 30
)

var inspectionKeywords = regexp.MustCompile(`(?i)inspection|itv|mot|tuv|controle technique`)

// InspectionFields are the vehicle settings the calculator reads.
type InspectionFields struct {
	InspectionDueDate        *time.Time
	LastInspectionDate       *time.Time
	InspectionIntervalMonths *int
}

// InspectionStatus is the classifier output. DaysRemaining and DueDate are
// nil exactly when State is InspectionUnknown.
type InspectionStatus struct {
	State         InspectionState
	DaysRemaining *int
	DueDate       *time.Time
}

// ComputeInspectionDueDate resolves the due date, or nil when unknown.
func ComputeInspectionDueDate(f InspectionFields) *time.Time {
	if f.InspectionDueDate != nil {
		due := *f.InspectionDueDate
		return &due
	}
	if f.LastInspectionDate != nil {
		interval := DefaultInspectionIntervalMonths
		if f.InspectionIntervalMonths != nil && *f.InspectionIntervalMonths > 0 {
			interval = *f.InspectionIntervalMonths
		}
		due := AddMonths(*f.LastInspectionDate, interval)
		return &due
	}
	return nil
}

// ClassifyInspection maps a due date to a status relative to today.
func ClassifyInspection(today time.Time, due *time.Time) InspectionStatus {
	if due == nil {
		return InspectionStatus{State: InspectionUnknown}
	}
	days := DiffDays(today, *due)
	dueDate := *due

	state := InspectionOK
	switch {
	case days < 0:
		state = InspectionOverdue
	case days <= DueSoonDays:
		state = InspectionDueSoon
	}
	return InspectionStatus{State: state, DaysRemaining: &days, DueDate: &dueDate}
}

// ComputeInspectionStatus resolves the due date from the vehicle fields,
// falling back to the expense history for the last inspection date, and
// classifies it relative to now.
func ComputeInspectionStatus(f InspectionFields, expenses []Expense, now time.Time) InspectionStatus {
	if f.LastInspectionDate == nil {
		f.LastInspectionDate = PickLastInspectionDate(expenses)
	}
	return ClassifyInspection(now, ComputeInspectionDueDate(f))
}

// PickLastInspectionDate returns the latest date of an expense whose vendor
// or notes look like an inspection, or nil. Expenses without a usable date
// (zero time) are skipped.
func PickLastInspectionDate(expenses []Expense) *time.Time {
	var latest *time.Time
	for _, e := range expenses {
		if !IsInspectionExpense(e) || e.Date.IsZero() {
			continue
		}
		if latest == nil || e.Date.After(*latest) {
			d := e.Date
			latest = &d
		}
	}
	return latest
}

// IsInspectionExpense reports whether vendor or notes match an inspection
// keyword. The category is not consulted.
func IsInspectionExpense(e Expense) bool {
	return inspectionKeywords.MatchString(e.Vendor) || inspectionKeywords.MatchString(e.Notes)
}
