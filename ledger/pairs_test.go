package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var june2 = date(2025, time.June, 2)

// dayBuilder hands out increasing ids so tie-breaking is deterministic.
type dayBuilder struct {
	date   ledger.Date
	nextID ledger.EventID
	events []ledger.PunchEvent
}

func newDay(d ledger.Date) *dayBuilder { return &dayBuilder{date: d, nextID: 1} }

func (b *dayBuilder) add(kind ledger.Kind, hhmm string, opts ...func(*ledger.PunchEvent)) *dayBuilder {
	c, err := ledger.ParseClockTime(hhmm)
	if err != nil {
		panic(err)
	}
	e := ledger.PunchEvent{ID: b.nextID, Date: b.date, Time: c, Kind: kind}
	for _, o := range opts {
		o(&e)
	}
	b.nextID++
	b.events = append(b.events, e)
	return b
}

func (b *dayBuilder) in(hhmm string, opts ...func(*ledger.PunchEvent)) *dayBuilder {
	return b.add(ledger.KindIn, hhmm, opts...)
}

func (b *dayBuilder) out(hhmm string, opts ...func(*ledger.PunchEvent)) *dayBuilder {
	return b.add(ledger.KindOut, hhmm, opts...)
}

func withLunch(m int) func(*ledger.PunchEvent) {
	return func(e *ledger.PunchEvent) { e.Lunch = ledger.IntPtr(m) }
}

// deducedLunch marks a lunch read from the gap after an OUT.
func deducedLunch(m int) func(*ledger.PunchEvent) {
	return func(e *ledger.PunchEvent) {
		e.Lunch = ledger.IntPtr(m)
		e.LunchDeduced = true
	}
}

func withPos(p ledger.Position) func(*ledger.PunchEvent) {
	return func(e *ledger.PunchEvent) { e.Position = p }
}

func workGap(v bool) func(*ledger.PunchEvent) {
	return func(e *ledger.PunchEvent) { e.WorkGap = ledger.BoolPtr(v) }
}

func clock(hhmm string) ledger.ClockTime {
	c, err := ledger.ParseClockTime(hhmm)
	if err != nil {
		panic(err)
	}
	return c
}

// =============================================================================
// RECONCILIATION TESTS
// =============================================================================

func TestReconcile_MatchedPairs(t *testing.T) {
	b := newDay(june2).in("09:00").out("12:00").in("13:00").out("17:00")

	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)

	require.Len(t, pairs, 2)
	for i, p := range pairs {
		assert.Equal(t, i+1, p.Index)
		assert.False(t, p.Unmatched)
		assert.Equal(t, ledger.PositionOffice, p.Position)
	}
	assert.Equal(t, clock("09:00"), pairs[0].In.Time)
	assert.Equal(t, clock("12:00"), pairs[0].Out.Time)
	assert.Equal(t, clock("13:00"), pairs[1].In.Time)
}

func TestReconcile_ConsecutiveInsCloseAsUnmatched(t *testing.T) {
	// GIVEN: IN IN OUT
	b := newDay(june2).in("08:00").in("09:00").out("17:00")

	// WHEN: Reconciling
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)

	// THEN: The first IN is orphaned, the second matches the OUT
	require.Len(t, pairs, 2)
	assert.True(t, pairs[0].Unmatched)
	assert.Nil(t, pairs[0].Out)
	assert.Equal(t, clock("08:00"), pairs[0].In.Time)
	assert.False(t, pairs[1].Unmatched)
	assert.Equal(t, clock("09:00"), pairs[1].In.Time)
}

func TestReconcile_LeadingOutAndTrailingIn(t *testing.T) {
	b := newDay(june2).out("07:00").in("09:00").out("12:00").in("13:00")

	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)

	require.Len(t, pairs, 3)
	assert.True(t, pairs[0].Unmatched)
	assert.Nil(t, pairs[0].In)
	assert.False(t, pairs[1].Unmatched)
	assert.True(t, pairs[2].Unmatched)
	assert.Nil(t, pairs[2].Out)
	assert.Equal(t, []int{1, 2, 3}, []int{pairs[0].Index, pairs[1].Index, pairs[2].Index})
}

func TestReconcile_EveryEventInExactlyOnePair(t *testing.T) {
	b := newDay(june2).in("08:00").in("08:30").out("10:00").out("10:05").in("11:00").out("12:00").in("15:00")

	pairs := ledger.Reconcile(june2, b.events, ledger.PositionNone)

	seen := map[ledger.EventID]int{}
	for _, p := range pairs {
		if p.In != nil {
			seen[p.In.ID]++
		}
		if p.Out != nil {
			seen[p.Out.ID]++
		}
	}
	assert.Len(t, seen, len(b.events))
	for id, n := range seen {
		assert.Equal(t, 1, n, "event %d", id)
	}
	// ceil(7/2) <= pairs <= 7
	assert.GreaterOrEqual(t, len(pairs), 4)
	assert.LessOrEqual(t, len(pairs), 7)
}

func TestReconcile_PureAlternationGivesCeilHalf(t *testing.T) {
	b := newDay(june2).in("08:00").out("09:00").in("10:00").out("11:00").in("12:00")
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionNone)
	assert.Len(t, pairs, 3)
}

func TestReconcile_Empty(t *testing.T) {
	assert.Empty(t, ledger.Reconcile(june2, nil, ledger.PositionOffice))
}

// =============================================================================
// POSITION FALLBACK TESTS
// =============================================================================

func TestReconcile_PositionFallback(t *testing.T) {
	// GIVEN: A remote morning, an afternoon with the position only on the OUT,
	// and an evening pair with no position at all
	b := newDay(june2).
		in("08:00", withPos(ledger.PositionRemote)).out("12:00").
		in("13:00").out("15:00", withPos(ledger.PositionOnSite)).
		in("16:00").out("17:00")

	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)

	require.Len(t, pairs, 3)
	assert.Equal(t, ledger.PositionRemote, pairs[0].Position)
	assert.Equal(t, ledger.PositionOnSite, pairs[1].Position)
	// Inherits from the previous pair rather than the default
	assert.Equal(t, ledger.PositionOnSite, pairs[2].Position)
}

func TestReconcile_DefaultPositionForFirstPair(t *testing.T) {
	b := newDay(june2).in("08:00").out("12:00")
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionRemote)
	assert.Equal(t, ledger.PositionRemote, pairs[0].Position)
}

// =============================================================================
// LUNCH ATTRIBUTION TESTS
// =============================================================================

func TestReconcile_LunchPrefersOut(t *testing.T) {
	b := newDay(june2).in("08:00", withLunch(45)).out("17:00", withLunch(60))
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)
	assert.Equal(t, 60, pairs[0].Lunch)
}

func TestReconcile_LunchFallsBackToIn(t *testing.T) {
	b := newDay(june2).in("08:00", withLunch(45)).out("17:00", withLunch(0))
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)
	assert.Equal(t, 45, pairs[0].Lunch)
}

// =============================================================================
// PAIR INDEX HELPERS
// =============================================================================

func TestPairIndices(t *testing.T) {
	b := newDay(june2).in("08:00").in("09:00").out("17:00")
	pairs := ledger.Reconcile(june2, b.events, ledger.PositionOffice)

	idx := ledger.PairIndices(pairs)
	assert.Equal(t, map[ledger.EventID]int{1: 1, 2: 2, 3: 2}, idx)

	p, ok := ledger.FindPair(pairs, 2)
	require.True(t, ok)
	assert.Equal(t, ledger.EventID(3), p.Out.ID)

	_, ok = ledger.FindPair(pairs, 3)
	assert.False(t, ok)
	_, ok = ledger.FindPair(pairs, 0)
	assert.False(t, ok)
}
