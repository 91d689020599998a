// Package store provides in-memory implementations of the analytics read
// interfaces.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/fuel-engine/analytics"
)

// =============================================================================
// MEMORY STORE - In-memory fill-up and expense log (for testing/dev)
// =============================================================================

var (
	_ analytics.FillUpReader  = (*Memory)(nil)
	_ analytics.ExpenseReader = (*Memory)(nil)
)

type Memory struct {
	mu       sync.RWMutex
	fillUps  map[string][]analytics.FillUp // per vehicle, ascending
	expenses map[string][]analytics.Expense
}

func NewMemory() *Memory {
	return &Memory{
		fillUps:  make(map[string][]analytics.FillUp),
		expenses: make(map[string][]analytics.Expense),
	}
}

// AddFillUp inserts f after every fill-up dated at or before it, so records
// with equal timestamps keep insertion order.
func (m *Memory) AddFillUp(vehicleID string, f analytics.FillUp) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.fillUps[vehicleID]
	i := sort.Search(len(log), func(i int) bool {
		return log[i].Date.After(f.Date)
	})
	log = append(log, analytics.FillUp{})
	copy(log[i+1:], log[i:])
	log[i] = f
	m.fillUps[vehicleID] = log
}

func (m *Memory) AddExpense(vehicleID string, e analytics.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.expenses[vehicleID]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(e.Date)
	})
	list = append(list, analytics.Expense{})
	copy(list[i+1:], list[i:])
	list[i] = e
	m.expenses[vehicleID] = list
}

func (m *Memory) ListFillUps(_ context.Context, vehicleID, cursor string, limit int) (analytics.FillUpPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.fillUps[vehicleID]
	end := len(log) // exclusive upper bound in ascending order
	if cursor != "" {
		end = -1
		for i, f := range log {
			if f.ID == cursor {
				end = i
				break
			}
		}
		if end < 0 {
			return analytics.FillUpPage{}, analytics.ErrInvalidCursor
		}
	}

	page := newestFirst(log[:end], limit)
	next := ""
	if limit > 0 && end > limit {
		next = page[len(page)-1].ID
	}
	return analytics.FillUpPage{FillUps: page, NextCursor: next}, nil
}

func (m *Memory) FillUpsOlderThanOrEqual(_ context.Context, vehicleID string, before time.Time, limit int) ([]analytics.FillUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.fillUps[vehicleID]
	end := sort.Search(len(log), func(i int) bool {
		return log[i].Date.After(before)
	})
	return newestFirst(log[:end], limit), nil
}

func (m *Memory) AllFillUps(_ context.Context, vehicleID string) ([]analytics.FillUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]analytics.FillUp, len(m.fillUps[vehicleID]))
	copy(result, m.fillUps[vehicleID])
	return result, nil
}

func (m *Memory) ListExpenses(_ context.Context, vehicleID string) ([]analytics.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]analytics.Expense, len(m.expenses[vehicleID]))
	copy(result, m.expenses[vehicleID])
	return result, nil
}

// newestFirst returns up to limit records from the tail of an ascending log,
// reversed. limit <= 0 means no limit.
func newestFirst(log []analytics.FillUp, limit int) []analytics.FillUp {
	n := len(log)
	if limit > 0 && n > limit {
		n = limit
	}
	result := make([]analytics.FillUp, 0, n)
	for i := len(log) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, log[i])
	}
	return result
}
