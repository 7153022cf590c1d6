/*
Package sqlite provides a SQLite-backed implementation of the ledger storage interfaces.

PURPOSE:
  Persists raw punch events and the audit log. Everything derived (pairs,
  gaps, worked time, surplus) is recomputed by the ledger package; only the
  last computed pair index of each event is cached in the "pair" column so
  that raw listings can show it.

INTERFACES IMPLEMENTED:
  ledger.EventSource: Snapshot reads for reports and exports
  ledger.EventStore:  Insert/update/delete of punch events
  ledger.TxStore:     Atomic multi-write commands
  ledger.AuditLog:    Append-only operation log

KEY TABLES:
  events: One row per clock IN/OUT
  log:    Audit trail of every mutating command

INDEXES:
  - idx_events_date_time: Per-day ordered reads (hot path)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In-memory databases are limited to a
  single connection; every connection would otherwise see its own empty db.

USAGE:
  store, err := sqlite.New("./worklog.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := journal.NewService(store, ...)

MIGRATION:
  Schema is auto-migrated on New() with CREATE TABLE IF NOT EXISTS.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/worklog/ledger"
)

const timestampLayout = time.RFC3339

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
	if strings.Contains(dbPath, ":memory:") {
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
	-- Raw punches
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('in', 'out')),
		position TEXT,
		lunch_break INTEGER,
		lunch_deduced INTEGER NOT NULL DEFAULT 0,
		work_gap INTEGER,
		pair INTEGER NOT NULL DEFAULT 0,
		source TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date_time
		ON events(date, time, id);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		operation TEXT NOT NULL,
		target TEXT,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_log_at
		ON log(at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.addColumn("events", "lunch_deduced", "INTEGER NOT NULL DEFAULT 0")
}

// addColumn adds a column missing from databases created by older builds.
func (s *Store) addColumn(table, column, decl string) error {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// =============================================================================
// QUERIES - Shared by the store and its transactional view
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const eventColumns = `id, date, time, kind, position, lunch_break, lunch_deduced, work_gap, pair, source, created_at`

type queries struct {
	db querier
}

func (q queries) fetchEvents(ctx context.Context, interval ledger.DateInterval) ([]ledger.PunchEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, time ASC, id ASC`
	return q.queryEvents(ctx, query, interval.Start.String(), interval.End.String())
}

func (q queries) eventsByDate(ctx context.Context, date ledger.Date) ([]ledger.PunchEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE date = ?
		ORDER BY time ASC, id ASC`
	return q.queryEvents(ctx, query, date.String())
}

func (q queries) insertEvent(ctx context.Context, e ledger.PunchEvent) (ledger.EventID, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (date, time, kind, position, lunch_break, lunch_deduced, work_gap, pair, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date.String(),
		e.Time.String(),
		string(e.Kind),
		nullString(string(e.Position)),
		nullInt(e.Lunch),
		e.LunchDeduced,
		nullBool(e.WorkGap),
		e.PairIndex,
		nullString(e.Source),
		createdAt.Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event id: %w", err)
	}
	return ledger.EventID(id), nil
}

func (q queries) updateEvent(ctx context.Context, e ledger.PunchEvent) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE events
		SET date = ?, time = ?, kind = ?, position = ?, lunch_break = ?, lunch_deduced = ?, work_gap = ?, pair = ?, source = ?
		WHERE id = ?`,
		e.Date.String(),
		e.Time.String(),
		string(e.Kind),
		nullString(string(e.Position)),
		nullInt(e.Lunch),
		e.LunchDeduced,
		nullBool(e.WorkGap),
		e.PairIndex,
		nullString(e.Source),
		int64(e.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d not found", e.ID)
	}
	return nil
}

func (q queries) deleteEvents(ctx context.Context, ids []ledger.EventID) error {
	for _, id := range ids {
		if _, err := q.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", int64(id)); err != nil {
			return fmt.Errorf("failed to delete event %d: %w", id, err)
		}
	}
	return nil
}

func (q queries) savePairIndices(ctx context.Context, date ledger.Date, indices map[ledger.EventID]int) error {
	for id, pair := range indices {
		_, err := q.db.ExecContext(ctx,
			"UPDATE events SET pair = ? WHERE id = ? AND date = ?",
			pair, int64(id), date.String())
		if err != nil {
			return fmt.Errorf("failed to save pair of event %d: %w", id, err)
		}
	}
	return nil
}

func (q queries) dates(ctx context.Context) ([]ledger.Date, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT DISTINCT date FROM events ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query dates: %w", err)
	}
	defer rows.Close()

	var dates []ledger.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := ledger.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (q queries) queryEvents(ctx context.Context, query string, args ...any) ([]ledger.PunchEvent, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.PunchEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (ledger.PunchEvent, error) {
	var (
		e         ledger.PunchEvent
		id        int64
		date      string
		clock     string
		kind      string
		position  sql.NullString
		lunch     sql.NullInt64
		workGap   sql.NullInt64
		source    sql.NullString
		createdAt string
	)

	err := rows.Scan(&id, &date, &clock, &kind, &position, &lunch, &e.LunchDeduced, &workGap, &e.PairIndex, &source, &createdAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan event: %w", err)
	}

	e.ID = ledger.EventID(id)
	if e.Date, err = ledger.ParseDate(date); err != nil {
		return e, fmt.Errorf("event %d: %w", id, err)
	}
	if e.Time, err = ledger.ParseClockTime(clock); err != nil {
		return e, fmt.Errorf("event %d: %w", id, err)
	}
	if e.Kind, err = ledger.ParseKind(kind); err != nil {
		return e, fmt.Errorf("event %d: %w", id, err)
	}
	// Unknown codes from older rows read as "not given"
	if p, perr := ledger.ParsePosition(position.String); perr == nil {
		e.Position = p
	}
	if lunch.Valid {
		e.Lunch = ledger.IntPtr(int(lunch.Int64))
	}
	if workGap.Valid {
		e.WorkGap = ledger.BoolPtr(workGap.Int64 != 0)
	}
	e.Source = source.String
	e.CreatedAt, _ = time.Parse(timestampLayout, createdAt)

	return e, nil
}

// =============================================================================
// EVENT STORE (ledger.EventStore interface)
// =============================================================================

func (s *Store) q() queries { return queries{db: s.db} }

// FetchEvents returns every event dated within interval.
func (s *Store) FetchEvents(ctx context.Context, interval ledger.DateInterval) ([]ledger.PunchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().fetchEvents(ctx, interval)
}

// EventsByDate returns one day ordered by time then id.
func (s *Store) EventsByDate(ctx context.Context, date ledger.Date) ([]ledger.PunchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().eventsByDate(ctx, date)
}

func (s *Store) InsertEvent(ctx context.Context, e ledger.PunchEvent) (ledger.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().insertEvent(ctx, e)
}

func (s *Store) UpdateEvent(ctx context.Context, e ledger.PunchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().updateEvent(ctx, e)
}

func (s *Store) DeleteEvents(ctx context.Context, ids ...ledger.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().deleteEvents(ctx, ids)
}

func (s *Store) SavePairIndices(ctx context.Context, date ledger.Date, indices map[ledger.EventID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().savePairIndices(ctx, date, indices)
}

func (s *Store) Dates(ctx context.Context) ([]ledger.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().dates(ctx)
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.EventStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: queries{db: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every statement on the open transaction. The parent lock is held.
type txStore struct {
	q queries
}

func (ts *txStore) FetchEvents(ctx context.Context, interval ledger.DateInterval) ([]ledger.PunchEvent, error) {
	return ts.q.fetchEvents(ctx, interval)
}

func (ts *txStore) EventsByDate(ctx context.Context, date ledger.Date) ([]ledger.PunchEvent, error) {
	return ts.q.eventsByDate(ctx, date)
}

func (ts *txStore) InsertEvent(ctx context.Context, e ledger.PunchEvent) (ledger.EventID, error) {
	return ts.q.insertEvent(ctx, e)
}

func (ts *txStore) UpdateEvent(ctx context.Context, e ledger.PunchEvent) error {
	return ts.q.updateEvent(ctx, e)
}

func (ts *txStore) DeleteEvents(ctx context.Context, ids ...ledger.EventID) error {
	return ts.q.deleteEvents(ctx, ids)
}

func (ts *txStore) SavePairIndices(ctx context.Context, date ledger.Date, indices map[ledger.EventID]int) error {
	return ts.q.savePairIndices(ctx, date, indices)
}

func (ts *txStore) Dates(ctx context.Context) ([]ledger.Date, error) {
	return ts.q.dates(ctx)
}

// =============================================================================
// AUDIT LOG (ledger.AuditLog interface)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO log (id, at, operation, target, message) VALUES (?, ?, ?, ?, ?)",
		entry.ID,
		entry.At.UTC().Format(time.RFC3339Nano),
		string(entry.Operation),
		nullString(entry.Target),
		nullString(entry.Message),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the newest entries first; limit <= 0 returns all.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, operation, target, message
		FROM log
		ORDER BY at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []ledger.AuditEntry
	for rows.Next() {
		var (
			entry   ledger.AuditEntry
			at      string
			op      string
			target  sql.NullString
			message sql.NullString
		)
		if err := rows.Scan(&entry.ID, &at, &op, &target, &message); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.At, _ = time.Parse(time.RFC3339Nano, at)
		entry.Operation = ledger.AuditOperation(op)
		entry.Target = target.String
		entry.Message = message.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"events", "log"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	if *v {
		return sql.NullInt64{Int64: 1, Valid: true}
	}
	return sql.NullInt64{Int64: 0, Valid: true}
}
