package analytics

import "time"

// =============================================================================
// CALENDAR MATH - Month-aware date arithmetic
// =============================================================================

// AddMonths moves t by n calendar months, keeping the time of day and
// location. When the day does not exist in the target month it is clamped to
// that month's last day: Jan 31 + 1 month is Feb 28 (or 29), never Mar 2/3.
// time.AddDate would normalize the overflow into the next month instead.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DiffDays returns the signed number of whole days from `from` to `to`, after
// normalizing both to midnight of their local calendar day. Negative means
// `to` lies before `from`.
func DiffDays(from, to time.Time) int {
	// Compare civil dates in UTC so a DST transition between the two days
	// cannot produce a 23h or 25h "day".
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns local midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysAgo returns the instant exactly n calendar days before now, in now's
// location. Used as the lower bound of rolling windows.
func DaysAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
