/*
store.go - Storage contracts around the engine

PURPOSE:
  The engine never performs I/O. These interfaces describe what the storage
  collaborator supplies (snapshots of events for an interval) and what it
  persists after a mutating command (events, recomputed pair indices, audit
  entries).

SNAPSHOT CONTRACT:
  FetchEvents returns a consistent snapshot for the interval, in no
  particular order. BuildTimeline imposes the order.

PAIR INDICES:
  After any insert/edit/delete touching a date the caller reconciles that
  date with Reconcile and hands PairIndices(...) to SavePairIndices.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - ledger/store/memory.go: In-memory for tests and demos
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// EVENT STORE
// =============================================================================

// EventSource is the read side consumed by reports and exports.
type EventSource interface {
	// FetchEvents returns all events whose date is within interval.
	FetchEvents(ctx context.Context, interval DateInterval) ([]PunchEvent, error)
}

// EventStore is the full persistence surface used by the command layer.
type EventStore interface {
	EventSource

	// EventsByDate returns one date's events ordered by time then id.
	EventsByDate(ctx context.Context, date Date) ([]PunchEvent, error)

	// InsertEvent stores e and returns its new id. e.ID is ignored.
	InsertEvent(ctx context.Context, e PunchEvent) (EventID, error)

	// UpdateEvent overwrites every field of the event with e.ID.
	UpdateEvent(ctx context.Context, e PunchEvent) error

	// DeleteEvents removes the given events. Unknown ids are ignored.
	DeleteEvents(ctx context.Context, ids ...EventID) error

	// SavePairIndices persists recomputed pair indices of one date.
	SavePairIndices(ctx context.Context, date Date, indices map[EventID]int) error

	// Dates returns every date holding at least one event, ascending.
	Dates(ctx context.Context) ([]Date, error)
}

// TxStore runs several writes atomically.
type TxStore interface {
	EventStore

	// WithTx executes fn within a transaction; an error rolls back.
	WithTx(ctx context.Context, fn func(EventStore) error) error
}

// =============================================================================
// AUDIT LOG
// =============================================================================

type AuditOperation string

const (
	AuditAdd       AuditOperation = "add"
	AuditEdit      AuditOperation = "edit"
	AuditDelete    AuditOperation = "del"
	AuditAutoLunch AuditOperation = "auto_lunch"
	AuditWorkGap   AuditOperation = "work_gap"
	AuditRecompute AuditOperation = "recompute"
	AuditScenario  AuditOperation = "scenario"
)

// AuditEntry records who changed what. Append-only.
type AuditEntry struct {
	ID        string
	At        time.Time
	Operation AuditOperation
	Target    string
	Message   string
}

type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}
