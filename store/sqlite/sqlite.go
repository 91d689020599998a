/*
Package sqlite provides the SQLite-backed storage for vehicles, fill-ups,
expenses and inspection alerts.

PURPOSE:
  Persists the records the analytics engine reads and implements its read
  interfaces (analytics.FillUpReader, analytics.ExpenseReader), so handlers
  can hand the store straight to ResolvePagedSegments.

KEY TABLES:
  vehicles:          Vehicle rows, including the inspection settings
  fill_ups:          Refueling log, one row per fill-up
  expenses:          Non-fuel-pump costs
  inspection_alerts: Reminders recorded by the inspection sweep

ORDERING:
  Dates are stored as fixed-width UTC text, so lexical order is
  chronological. Every fill-up carries an autoincrement seq, and every read
  orders by (date, seq): records sharing a timestamp come back in insertion
  order from ListFillUps, FillUpsOlderThanOrEqual and AllFillUps alike.

PAGINATION:
  ListFillUps cursors are fill-up IDs. A page holds the records strictly
  older than the cursor in (date, seq) order. NextCursor is the ID of the
  page's last record, empty when nothing older remains.

CONCURRENCY:
  Uses sync.RWMutex around the connection pool. ":memory:" databases are
  pinned to a single connection so every query sees the same database.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging): readers do not
  block the writer.

USAGE:
  store, err := sqlite.New("./data/fuel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - analytics/store.go: Interface definitions and the ordering contract
  - analytics/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/fuel-engine/analytics"
)

// timeLayout is fixed width so TEXT comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	_ analytics.FillUpReader  = (*Store)(nil)
	_ analytics.ExpenseReader = (*Store)(nil)
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		make TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		inspection_due_date TEXT,
		inspection_interval_months INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fill_ups (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		odometer_km INTEGER NOT NULL,
		liters TEXT NOT NULL,
		price_per_liter TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		is_full BOOLEAN NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: pagination and backfill walk this index backwards
	CREATE INDEX IF NOT EXISTS idx_fill_ups_vehicle_date
		ON fill_ups(vehicle_id, date, seq);

	CREATE TABLE IF NOT EXISTS expenses (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		amount TEXT NOT NULL,
		vendor TEXT NOT NULL DEFAULT '',
		odometer_km INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_vehicle_date
		ON expenses(vehicle_id, date, seq);

	-- One alert per vehicle, due date and state: the sweep is idempotent
	CREATE TABLE IF NOT EXISTS inspection_alerts (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		due_date TEXT NOT NULL,
		state TEXT NOT NULL,
		days_remaining INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(vehicle_id, due_date, state)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// VEHICLE STORE
// =============================================================================

// SaveVehicle inserts or updates a vehicle. An empty ID gets a new UUID.
func (s *Store) SaveVehicle(ctx context.Context, v analytics.Vehicle) (analytics.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO vehicles (id, name, make, model, year,
			inspection_due_date, inspection_interval_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			make = excluded.make,
			model = excluded.model,
			year = excluded.year,
			inspection_due_date = excluded.inspection_due_date,
			inspection_interval_months = excluded.inspection_interval_months
	`

	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.Name, v.Make, v.Model, v.Year,
		nullTime(v.InspectionDueDate), nullInt(v.InspectionIntervalMonths),
		formatTime(v.CreatedAt),
	)
	if err != nil {
		return analytics.Vehicle{}, fmt.Errorf("failed to save vehicle: %w", err)
	}
	return s.getVehicle(ctx, v.ID)
}

// GetVehicle returns analytics.ErrVehicleNotFound for an unknown ID.
func (s *Store) GetVehicle(ctx context.Context, id string) (analytics.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getVehicle(ctx, id)
}

const vehicleColumns = `id, name, make, model, year, inspection_due_date, inspection_interval_months, created_at`

func (s *Store) getVehicle(ctx context.Context, id string) (analytics.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+vehicleColumns+" FROM vehicles WHERE id = ?", id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return analytics.Vehicle{}, analytics.ErrVehicleNotFound
	}
	return v, err
}

// ListVehicles returns all vehicles, oldest first.
func (s *Store) ListVehicles(ctx context.Context) ([]analytics.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles ORDER BY created_at, name")
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []analytics.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// DeleteVehicle removes a vehicle with its fill-ups, expenses and alerts.
func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id)
	return affected(res, err, analytics.ErrVehicleNotFound)
}

func (s *Store) vehicleExists(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicles WHERE id = ?", id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return analytics.ErrVehicleNotFound
	}
	return nil
}

func scanVehicle(row scanner) (analytics.Vehicle, error) {
	var v analytics.Vehicle
	var dueDate sql.NullString
	var interval sql.NullInt64
	var createdAt string

	if err := row.Scan(&v.ID, &v.Name, &v.Make, &v.Model, &v.Year, &dueDate, &interval, &createdAt); err != nil {
		return analytics.Vehicle{}, err
	}
	if dueDate.Valid {
		t, err := parseTime(dueDate.String)
		if err != nil {
			return analytics.Vehicle{}, err
		}
		v.InspectionDueDate = &t
	}
	if interval.Valid {
		months := int(interval.Int64)
		v.InspectionIntervalMonths = &months
	}
	v.CreatedAt, _ = parseTime(createdAt)
	return v, nil
}

// =============================================================================
// FILL-UP STORE (analytics.FillUpReader)
// =============================================================================

// SaveFillUp inserts or updates a fill-up of an existing vehicle. An empty
// ID gets a new UUID. Updates keep the record's storage order.
func (s *Store) SaveFillUp(ctx context.Context, vehicleID string, f analytics.FillUp) (analytics.FillUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vehicleExists(ctx, vehicleID); err != nil {
		return analytics.FillUp{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	query := `
		INSERT INTO fill_ups (id, vehicle_id, date, odometer_km, liters,
			price_per_liter, total_cost, is_full, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			odometer_km = excluded.odometer_km,
			liters = excluded.liters,
			price_per_liter = excluded.price_per_liter,
			total_cost = excluded.total_cost,
			is_full = excluded.is_full,
			notes = excluded.notes
		WHERE fill_ups.vehicle_id = excluded.vehicle_id
	`

	res, err := s.db.ExecContext(ctx, query,
		f.ID, vehicleID, formatTime(f.Date), f.OdometerKm,
		f.Liters.String(), f.PricePerLiter.String(), f.TotalCost.String(),
		f.IsFull, f.Notes, formatTime(time.Now()),
	)
	if err := affected(res, err, analytics.ErrFillUpNotFound); err != nil {
		return analytics.FillUp{}, fmt.Errorf("failed to save fill-up: %w", err)
	}
	return s.getFillUp(ctx, vehicleID, f.ID)
}

// GetFillUp returns analytics.ErrFillUpNotFound when the fill-up does not
// exist or belongs to another vehicle.
func (s *Store) GetFillUp(ctx context.Context, vehicleID, id string) (analytics.FillUp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getFillUp(ctx, vehicleID, id)
}

const fillUpColumns = `id, date, odometer_km, liters, price_per_liter, total_cost, is_full, notes`

func (s *Store) getFillUp(ctx context.Context, vehicleID, id string) (analytics.FillUp, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+fillUpColumns+" FROM fill_ups WHERE vehicle_id = ? AND id = ?", vehicleID, id)
	f, err := scanFillUp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return analytics.FillUp{}, analytics.ErrFillUpNotFound
	}
	return f, err
}

func (s *Store) DeleteFillUp(ctx context.Context, vehicleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM fill_ups WHERE vehicle_id = ? AND id = ?", vehicleID, id)
	return affected(res, err, analytics.ErrFillUpNotFound)
}

// ListFillUps returns one page, newest first. limit <= 0 means no limit.
func (s *Store) ListFillUps(ctx context.Context, vehicleID, cursor string, limit int) (analytics.FillUpPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + fillUpColumns + " FROM fill_ups WHERE vehicle_id = ?"
	args := []any{vehicleID}

	if cursor != "" {
		var date string
		var seq int64
		err := s.db.QueryRowContext(ctx,
			"SELECT date, seq FROM fill_ups WHERE vehicle_id = ? AND id = ?", vehicleID, cursor,
		).Scan(&date, &seq)
		if errors.Is(err, sql.ErrNoRows) {
			return analytics.FillUpPage{}, analytics.ErrInvalidCursor
		}
		if err != nil {
			return analytics.FillUpPage{}, fmt.Errorf("failed to resolve cursor: %w", err)
		}
		query += " AND (date < ? OR (date = ? AND seq < ?))"
		args = append(args, date, date, seq)
	}

	// One extra row tells whether an older page exists.
	query += " ORDER BY date DESC, seq DESC LIMIT ?"
	args = append(args, sqlLimit(limit, 1))

	fillUps, err := s.queryFillUps(ctx, query, args...)
	if err != nil {
		return analytics.FillUpPage{}, err
	}

	page := analytics.FillUpPage{FillUps: fillUps}
	if limit > 0 && len(fillUps) > limit {
		page.FillUps = fillUps[:limit]
		page.NextCursor = fillUps[limit-1].ID
	}
	return page, nil
}

// FillUpsOlderThanOrEqual returns up to limit fill-ups dated at or before
// `before`, newest first. limit <= 0 means no limit.
func (s *Store) FillUpsOlderThanOrEqual(ctx context.Context, vehicleID string, before time.Time, limit int) ([]analytics.FillUp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + fillUpColumns + ` FROM fill_ups
		WHERE vehicle_id = ? AND date <= ?
		ORDER BY date DESC, seq DESC
		LIMIT ?`
	return s.queryFillUps(ctx, query, vehicleID, formatTime(before), sqlLimit(limit, 0))
}

// AllFillUps returns the whole log, oldest first.
func (s *Store) AllFillUps(ctx context.Context, vehicleID string) ([]analytics.FillUp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + fillUpColumns + " FROM fill_ups WHERE vehicle_id = ? ORDER BY date ASC, seq ASC"
	return s.queryFillUps(ctx, query, vehicleID)
}

// History binds the store to one vehicle for ResolvePagedSegments.
func (s *Store) History(vehicleID string) analytics.HistoryFetcher {
	return analytics.History(s, vehicleID)
}

func (s *Store) queryFillUps(ctx context.Context, query string, args ...any) ([]analytics.FillUp, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fill-ups: %w", err)
	}
	defer rows.Close()

	fillUps := []analytics.FillUp{}
	for rows.Next() {
		f, err := scanFillUp(rows)
		if err != nil {
			return nil, err
		}
		fillUps = append(fillUps, f)
	}
	return fillUps, rows.Err()
}

func scanFillUp(row scanner) (analytics.FillUp, error) {
	var f analytics.FillUp
	var date, liters, price, total string

	if err := row.Scan(&f.ID, &date, &f.OdometerKm, &liters, &price, &total, &f.IsFull, &f.Notes); err != nil {
		return analytics.FillUp{}, err
	}

	var err error
	if f.Date, err = parseTime(date); err != nil {
		return analytics.FillUp{}, err
	}
	if f.Liters, err = parseDecimal("liters", liters); err != nil {
		return analytics.FillUp{}, err
	}
	if f.PricePerLiter, err = parseDecimal("price_per_liter", price); err != nil {
		return analytics.FillUp{}, err
	}
	if f.TotalCost, err = parseDecimal("total_cost", total); err != nil {
		return analytics.FillUp{}, err
	}
	return f, nil
}

// =============================================================================
// EXPENSE STORE (analytics.ExpenseReader)
// =============================================================================

// SaveExpense inserts or updates an expense of an existing vehicle.
func (s *Store) SaveExpense(ctx context.Context, vehicleID string, e analytics.Expense) (analytics.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vehicleExists(ctx, vehicleID); err != nil {
		return analytics.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query := `
		INSERT INTO expenses (id, vehicle_id, date, category, amount, vendor,
			odometer_km, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			category = excluded.category,
			amount = excluded.amount,
			vendor = excluded.vendor,
			odometer_km = excluded.odometer_km,
			notes = excluded.notes
		WHERE expenses.vehicle_id = excluded.vehicle_id
	`

	res, err := s.db.ExecContext(ctx, query,
		e.ID, vehicleID, formatTime(e.Date), string(e.Category), e.Amount.String(),
		e.Vendor, nullInt(e.OdometerKm), e.Notes, formatTime(time.Now()),
	)
	if err := affected(res, err, analytics.ErrExpenseNotFound); err != nil {
		return analytics.Expense{}, fmt.Errorf("failed to save expense: %w", err)
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, vehicleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE vehicle_id = ? AND id = ?", vehicleID, id)
	return affected(res, err, analytics.ErrExpenseNotFound)
}

// ListExpenses returns a vehicle's expenses, oldest first.
func (s *Store) ListExpenses(ctx context.Context, vehicleID string) ([]analytics.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, category, amount, vendor, odometer_km, notes
		FROM expenses
		WHERE vehicle_id = ?
		ORDER BY date ASC, seq ASC
	`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []analytics.Expense{}
	for rows.Next() {
		var e analytics.Expense
		var date, category, amount string
		var odometer sql.NullInt64
		if err := rows.Scan(&e.ID, &date, &category, &amount, &e.Vendor, &odometer, &e.Notes); err != nil {
			return nil, err
		}
		if e.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if e.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}
		e.Category = analytics.Category(category)
		if odometer.Valid {
			km := int(odometer.Int64)
			e.OdometerKm = &km
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// =============================================================================
// INSPECTION ALERTS
// =============================================================================

// InspectionAlert records that a vehicle was found dueSoon or overdue.
type InspectionAlert struct {
	ID            string
	VehicleID     string
	DueDate       time.Time
	State         analytics.InspectionState
	DaysRemaining int
	CreatedAt     time.Time
}

// SaveInspectionAlert stores an alert unless one already exists for the
// same vehicle, due date and state. created reports whether a row was added.
func (s *Store) SaveInspectionAlert(ctx context.Context, a InspectionAlert) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inspection_alerts (id, vehicle_id, due_date, state, days_remaining, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(vehicle_id, due_date, state) DO NOTHING
	`, a.ID, a.VehicleID, formatTime(a.DueDate), string(a.State), a.DaysRemaining, formatTime(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to save inspection alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListInspectionAlerts returns alerts newest first. An empty vehicleID
// lists every vehicle's alerts.
func (s *Store) ListInspectionAlerts(ctx context.Context, vehicleID string) ([]InspectionAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, vehicle_id, due_date, state, days_remaining, created_at FROM inspection_alerts`
	var args []any
	if vehicleID != "" {
		query += " WHERE vehicle_id = ?"
		args = append(args, vehicleID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspection alerts: %w", err)
	}
	defer rows.Close()

	alerts := []InspectionAlert{}
	for rows.Next() {
		var a InspectionAlert
		var dueDate, state, createdAt string
		if err := rows.Scan(&a.ID, &a.VehicleID, &dueDate, &state, &a.DaysRemaining, &createdAt); err != nil {
			return nil, err
		}
		a.DueDate, _ = parseTime(dueDate)
		a.CreatedAt, _ = parseTime(createdAt)
		a.State = analytics.InspectionState(state)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset deletes every row. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"inspection_alerts", "expenses", "fill_ups", "vehicles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", value, err)
	}
	return t, nil
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored %s %q: %w", column, value, err)
	}
	return d, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// sqlLimit maps "no limit" (limit <= 0) to SQLite's LIMIT -1.
func sqlLimit(limit, extra int) int {
	if limit <= 0 {
		return -1
	}
	return limit + extra
}

// affected turns "no row touched" into notFound.
func affected(res sql.Result, err error, notFound error) error {
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: duplicate id", analytics.ErrInvalidRecord)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
