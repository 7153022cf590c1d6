package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/ledger"
	"github.com/warp/worklog/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func punch(d ledger.Date, hhmm string, kind ledger.Kind) ledger.PunchEvent {
	c, err := ledger.ParseClockTime(hhmm)
	if err != nil {
		panic(err)
	}
	return ledger.PunchEvent{Date: d, Time: c, Kind: kind, Source: "test"}
}

var (
	june2 = ledger.NewDate(2025, time.June, 2)
	june3 = ledger.NewDate(2025, time.June, 3)
)

// =============================================================================
// EVENT TESTS
// =============================================================================

func TestStore_InsertAndFetch_RoundTripsNullableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: One event with every optional field set and one with none
	full := punch(june2, "12:30", ledger.KindOut)
	full.Position = ledger.PositionRemote
	full.Lunch = ledger.IntPtr(45)
	full.WorkGap = ledger.BoolPtr(false)
	full.LunchDeduced = true
	fullID, err := store.InsertEvent(ctx, full)
	require.NoError(t, err)

	bareID, err := store.InsertEvent(ctx, punch(june2, "09:00", ledger.KindIn))
	require.NoError(t, err)

	// WHEN: Reading the day back
	events, err := store.EventsByDate(ctx, june2)
	require.NoError(t, err)

	// THEN: Ordered by time, nil stays nil and explicit false stays false
	require.Len(t, events, 2)
	assert.Equal(t, bareID, events[0].ID)
	assert.Nil(t, events[0].Lunch)
	assert.Nil(t, events[0].WorkGap)
	assert.Equal(t, ledger.PositionNone, events[0].Position)
	assert.False(t, events[0].LunchDeduced)

	assert.Equal(t, fullID, events[1].ID)
	require.NotNil(t, events[1].Lunch)
	assert.Equal(t, 45, *events[1].Lunch)
	assert.True(t, events[1].LunchDeduced)
	require.NotNil(t, events[1].WorkGap)
	assert.False(t, *events[1].WorkGap)
	assert.Equal(t, ledger.PositionRemote, events[1].Position)
	assert.Equal(t, "test", events[1].Source)
	assert.False(t, events[1].CreatedAt.IsZero())
}

func TestNew_AddsColumnsMissingFromOlderDatabases(t *testing.T) {
	// GIVEN: A database file whose events table predates deduced lunches
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		kind TEXT NOT NULL,
		position TEXT,
		lunch_break INTEGER,
		work_gap INTEGER,
		pair INTEGER NOT NULL DEFAULT 0,
		source TEXT,
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO events (date, time, kind, lunch_break, created_at)
		VALUES ('2025-06-02', '12:00', 'out', 45, '2025-06-02T12:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	// WHEN: Opening it with the store
	store, err := sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	// THEN: Old rows read as explicit lunches and new rows keep the flag
	events, err := store.EventsByDate(context.Background(), june2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 45, *events[0].Lunch)
	assert.False(t, events[0].LunchDeduced)

	e := punch(june2, "12:30", ledger.KindOut)
	e.Lunch = ledger.IntPtr(30)
	e.LunchDeduced = true
	_, err = store.InsertEvent(context.Background(), e)
	require.NoError(t, err)
	events, err = store.EventsByDate(context.Background(), june2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].LunchDeduced)
}

func TestStore_FetchEvents_HonorsInterval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, e := range []ledger.PunchEvent{
		punch(june2, "09:00", ledger.KindIn),
		punch(june3, "09:00", ledger.KindIn),
		punch(ledger.NewDate(2025, time.July, 1), "09:00", ledger.KindIn),
	} {
		_, err := store.InsertEvent(ctx, e)
		require.NoError(t, err)
	}

	june, err := ledger.ParsePeriod("2025-06")
	require.NoError(t, err)
	events, err := store.FetchEvents(ctx, june)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	all, err := store.FetchEvents(ctx, ledger.AllTime())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dates, err := store.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Date{june2, june3, ledger.NewDate(2025, time.July, 1)}, dates)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.InsertEvent(ctx, punch(june2, "09:00", ledger.KindIn))
	require.NoError(t, err)

	e := punch(june2, "08:45", ledger.KindIn)
	e.ID = id
	e.Lunch = ledger.IntPtr(30)
	e.LunchDeduced = true
	require.NoError(t, store.UpdateEvent(ctx, e))

	events, err := store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "08:45", events[0].Time.String())
	assert.Equal(t, 30, *events[0].Lunch)
	assert.True(t, events[0].LunchDeduced)

	missing := e
	missing.ID = 999
	assert.Error(t, store.UpdateEvent(ctx, missing))

	require.NoError(t, store.DeleteEvents(ctx, id, 12345))
	events, err = store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_SavePairIndices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in, _ := store.InsertEvent(ctx, punch(june2, "09:00", ledger.KindIn))
	out, _ := store.InsertEvent(ctx, punch(june2, "17:00", ledger.KindOut))

	events, err := store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	pairs := ledger.Reconcile(june2, events, ledger.PositionOffice)
	require.NoError(t, store.SavePairIndices(ctx, june2, ledger.PairIndices(pairs)))

	events, err = store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	assert.Equal(t, in, events[0].ID)
	assert.Equal(t, 1, events[0].PairIndex)
	assert.Equal(t, out, events[1].ID)
	assert.Equal(t, 1, events[1].PairIndex)
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx ledger.EventStore) error {
		if _, err := tx.InsertEvent(ctx, punch(june2, "09:00", ledger.KindIn)); err != nil {
			return err
		}
		// Reads see the uncommitted write
		events, err := tx.EventsByDate(ctx, june2)
		if err != nil {
			return err
		}
		assert.Len(t, events, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	events, err := store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_WithTx_Commits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx ledger.EventStore) error {
		_, err := tx.InsertEvent(ctx, punch(june2, "09:00", ledger.KindIn))
		return err
	})
	require.NoError(t, err)

	events, err := store.EventsByDate(ctx, june2)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// =============================================================================
// AUDIT LOG TESTS
// =============================================================================

func TestStore_AuditLog_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	for i, op := range []ledger.AuditOperation{ledger.AuditAdd, ledger.AuditEdit, ledger.AuditDelete} {
		require.NoError(t, store.AppendAudit(ctx, ledger.AuditEntry{
			ID:        string(op),
			At:        base.Add(time.Duration(i) * time.Minute),
			Operation: op,
			Target:    "2025-06-02",
		}))
	}

	entries, err := store.ListAudit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.AuditDelete, entries[0].Operation)
	assert.Equal(t, ledger.AuditEdit, entries[1].Operation)
	assert.Equal(t, "2025-06-02", entries[0].Target)

	all, err := store.ListAudit(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Reset(ctx))
	all, err = store.ListAudit(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
