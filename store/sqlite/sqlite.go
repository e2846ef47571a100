/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the rate records the engine reads and an audit log of the
  calculations the server has run. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  interest.RateStore: Rate record persistence

KEY TABLES:
  rate_records:     Published rates, one row per (category, valid_from)
  calculation_runs: Request and result of every calculation, as JSON

RATE RECORDS:
  Percentages are stored as TEXT so decimal precision survives the round
  trip. Dates are stored as YYYY-MM-DD; lexical order equals date order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/interest.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  timeline, err := interest.LoadTimeline(ctx, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - interest/store.go: RateStore interface
  - store/memory: In-memory implementation for testing
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
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store implements interest.RateStore and the calculation run log.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		// Every connection to :memory: is a separate database
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_records (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		percentage TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		valid_to TEXT,
		source TEXT,
		created_at TEXT NOT NULL
	);

	-- One record per category and start date
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rate_records_category_from
		ON rate_records(category, valid_from);

	CREATE TABLE IF NOT EXISTS calculation_runs (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		principal TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_due TEXT NOT NULL,
		request_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculation_runs_created
		ON calculation_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RATE STORE (interest.RateStore interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SaveRate stores a rate record. A second record for the same category and
// start date is rejected with interest.ErrOverlappingRates.
func (s *Store) SaveRate(ctx context.Context, r interest.RateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveRate(ctx, s.db, r)
}

// SaveRates stores multiple records atomically.
func (s *Store) SaveRates(ctx context.Context, rs []interest.RateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, r := range rs {
		if err := s.saveRate(ctx, sqlTx, r); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// AddRate stores r after checking it against the stored records of its
// category. The read and the insert share one transaction.
func (s *Store) AddRate(ctx context.Context, r interest.RateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	existing, err := listRates(ctx, sqlTx, r.Category)
	if err != nil {
		return err
	}
	if err := interest.CheckAddition(existing, r); err != nil {
		return err
	}
	if err := s.saveRate(ctx, sqlTx, r); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func (s *Store) saveRate(ctx context.Context, db execer, r interest.RateRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	var validTo sql.NullString
	if r.ValidTo != nil {
		validTo = sql.NullString{String: r.ValidTo.String(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO rate_records (id, category, percentage, valid_from, valid_to, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		string(r.Category),
		r.Percentage.String(),
		r.ValidFrom.String(),
		validTo,
		nullString(r.Source),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%s rate from %s already stored: %w", r.Category, r.ValidFrom, interest.ErrOverlappingRates)
		}
		return fmt.Errorf("failed to save rate record: %w", err)
	}
	return nil
}

// ListRates returns records sorted by category and ValidFrom. An empty
// category lists every record.
func (s *Store) ListRates(ctx context.Context, category interest.Category) ([]interest.RateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listRates(ctx, s.db, category)
}

func listRates(ctx context.Context, db querier, category interest.Category) ([]interest.RateRecord, error) {
	query := `
		SELECT id, category, percentage, valid_from, valid_to, source
		FROM rate_records`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY category, valid_from`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate records: %w", err)
	}
	defer rows.Close()

	var result []interest.RateRecord
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanRate(rows *sql.Rows) (interest.RateRecord, error) {
	var (
		r                          interest.RateRecord
		category, percentage, from string
		validTo, source            sql.NullString
	)
	if err := rows.Scan(&r.ID, &category, &percentage, &from, &validTo, &source); err != nil {
		return interest.RateRecord{}, fmt.Errorf("failed to scan rate record: %w", err)
	}

	pct, err := decimal.NewFromString(percentage)
	if err != nil {
		return interest.RateRecord{}, fmt.Errorf("rate record %s: bad percentage %q: %w", r.ID, percentage, err)
	}
	validFrom, err := generic.ParseDate(from)
	if err != nil {
		return interest.RateRecord{}, fmt.Errorf("rate record %s: %w", r.ID, err)
	}

	r.Category = interest.Category(category)
	r.Percentage = pct
	r.ValidFrom = validFrom
	r.Source = source.String
	if validTo.Valid {
		to, err := generic.ParseDate(validTo.String)
		if err != nil {
			return interest.RateRecord{}, fmt.Errorf("rate record %s: %w", r.ID, err)
		}
		r.ValidTo = &to
	}
	return r, nil
}

// =============================================================================
// CALCULATION RUNS
// =============================================================================

// CalculationRun is the audit record of one calculation.
type CalculationRun struct {
	ID          string
	Category    string
	Principal   string
	Start       string
	End         string
	TotalDue    string
	RequestJSON string
	ResultJSON  string
	CreatedAt   time.Time
}

// SaveCalculationRun stores a run, assigning ID and CreatedAt when empty.
func (s *Store) SaveCalculationRun(ctx context.Context, run *CalculationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_runs
		(id, category, principal, start_date, end_date, total_due, request_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Category, run.Principal, run.Start, run.End, run.TotalDue,
		run.RequestJSON, run.ResultJSON, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save calculation run: %w", err)
	}
	return nil
}

// GetCalculationRun returns ErrNotFound for an unknown id.
func (s *Store) GetCalculationRun(ctx context.Context, id string) (*CalculationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, principal, start_date, end_date, total_due, request_json, result_json, created_at
		FROM calculation_runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calculation run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListCalculationRuns returns the most recent runs first.
func (s *Store) ListCalculationRuns(ctx context.Context, limit int) ([]CalculationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, principal, start_date, end_date, total_due, request_json, result_json, created_at
		FROM calculation_runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculation runs: %w", err)
	}
	defer rows.Close()

	var result []CalculationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*CalculationRun, error) {
	var (
		run       CalculationRun
		createdAt string
	)
	err := row.Scan(&run.ID, &run.Category, &run.Principal, &run.Start, &run.End,
		&run.TotalDue, &run.RequestJSON, &run.ResultJSON, &createdAt)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("calculation run %s: bad created_at %q: %w", run.ID, createdAt, err)
	}
	return &run, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"calculation_runs", "rate_records"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
