/*
store.go - Read interfaces the engine expects from storage

PURPOSE:
  The engine never talks to a database. These interfaces describe the reads
  the API layer performs on its behalf, so the same handlers run against the
  SQLite store in production and the in-memory store in tests.

ORDERING CONTRACT:
  Fill-ups are returned newest first, ordered by (date DESC, storage order
  DESC). Records sharing a timestamp must come back in the same relative
  order from every method, or paged and unpaged segment math may disagree
  on ties.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - analytics/store/memory.go: in-memory, for tests

SEE ALSO:
  - backfill.go: HistoryFetcher, which History adapts a FillUpReader to
*/
package analytics

import (
	"context"
	"time"
)

// FillUpReader reads one vehicle's fill-up log.
type FillUpReader interface {
	// ListFillUps returns up to limit fill-ups older than the cursor fill-up
	// (or the newest ones when cursor is empty), newest first.
	ListFillUps(ctx context.Context, vehicleID, cursor string, limit int) (FillUpPage, error)

	// FillUpsOlderThanOrEqual returns up to limit fill-ups dated at or
	// before `before`, newest first.
	FillUpsOlderThanOrEqual(ctx context.Context, vehicleID string, before time.Time, limit int) ([]FillUp, error)

	// AllFillUps returns the whole log, oldest first.
	AllFillUps(ctx context.Context, vehicleID string) ([]FillUp, error)
}

// ExpenseReader reads one vehicle's expenses, oldest first.
type ExpenseReader interface {
	ListExpenses(ctx context.Context, vehicleID string) ([]Expense, error)
}

// History binds a FillUpReader to one vehicle as a HistoryFetcher.
func History(r FillUpReader, vehicleID string) HistoryFetcher {
	return HistoryFetcherFunc(func(ctx context.Context, before time.Time, limit int) ([]FillUp, error) {
		return r.FillUpsOlderThanOrEqual(ctx, vehicleID, before, limit)
	})
}
