package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) ledger.Date {
	return ledger.Date{Year: y, Month: m, Day: d}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// =============================================================================
// SINGLE UNIT TESTS
// =============================================================================

func TestParsePeriod_Year(t *testing.T) {
	iv, err := ledger.ParsePeriod("2025")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 1), iv.Start)
	assert.Equal(t, date(2025, time.December, 31), iv.End)
}

func TestParsePeriod_Month(t *testing.T) {
	iv, err := ledger.ParsePeriod("2025-02")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 1), iv.Start)
	assert.Equal(t, date(2025, time.February, 28), iv.End)
}

func TestParsePeriod_LeapFebruary(t *testing.T) {
	iv, err := ledger.ParsePeriod("2024-02")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), iv.End)
	assert.True(t, iv.Contains(date(2024, time.February, 29)))
}

func TestParsePeriod_Day(t *testing.T) {
	iv, err := ledger.ParsePeriod("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, ledger.SingleDay(date(2025, time.June, 15)), iv)
}

func TestParsePeriod_All(t *testing.T) {
	for _, expr := range []string{"all", "ALL", " All "} {
		iv, err := ledger.ParsePeriod(expr)
		require.NoError(t, err, expr)
		assert.True(t, iv.IsUnbounded(), expr)
		assert.Equal(t, "all", iv.String())
	}
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestParsePeriod_MonthRange(t *testing.T) {
	// GIVEN: A range of months
	// WHEN: Resolving it
	iv, err := ledger.ParsePeriod("2025-05:2025-07")

	// THEN: It spans from the first day of the first month to the last day of the last
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.May, 1), iv.Start)
	assert.Equal(t, date(2025, time.July, 31), iv.End)
}

func TestParsePeriod_YearAndDayRanges(t *testing.T) {
	iv, err := ledger.ParsePeriod("2024:2025")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 1), iv.Start)
	assert.Equal(t, date(2025, time.December, 31), iv.End)

	iv, err = ledger.ParsePeriod("2025-06-01:2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.June, 1), iv.Start)
	assert.Equal(t, date(2025, time.June, 10), iv.End)
}

func TestParsePeriod_SameUnitRangeIsOneUnit(t *testing.T) {
	iv, err := ledger.ParsePeriod("2025-06:2025-06")
	require.NoError(t, err)
	assert.Equal(t, ledger.MonthOf(date(2025, time.June, 10)), iv)
}

func TestParsePeriod_InvertedRange(t *testing.T) {
	// GIVEN: A range whose end precedes its start
	_, err := ledger.ParsePeriod("2025-06:2025-05")

	// THEN: Both the inverted and the malformed sentinels match
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvertedRange)
	assert.ErrorIs(t, err, ledger.ErrMalformedPeriod)

	var inv *ledger.InvertedRangeError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, date(2025, time.June, 1), inv.Start)
	assert.Equal(t, date(2025, time.May, 1), inv.End)
}

func TestParsePeriod_MixedFormatsRejected(t *testing.T) {
	_, err := ledger.ParsePeriod("2025-06:2025-07-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrMalformedPeriod)
	assert.NotErrorIs(t, err, ledger.ErrInvertedRange)

	var mp *ledger.MalformedPeriodError
	require.True(t, errors.As(err, &mp))
	assert.Equal(t, "2025-07-01", mp.Token)
}

func TestParsePeriod_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		expr  string
		token string
	}{
		{"month 13", "2025-13", "2025-13"},
		{"month 00", "2025-00", "2025-00"},
		{"bad day", "2025-02-30", "2025-02-30"},
		{"letters", "abcd", "abcd"},
		{"slash", "2025/06", "2025/06"},
		{"three sides", "2025:2026:2027", "2026:2027"},
		{"open start", ":2025", ":2025"},
		{"open end", "2025:", "2025:"},
		{"short year", "25", "25"},
		{"bad side", "2025-01:2025-x1", "2025-x1"},
		{"year zero", "0000", "0000"},
		{"month of year zero", "0000-03", "0000-03"},
		{"day of year zero", "0000-06-01", "0000-06-01"},
		{"range from year zero", "0000:2025", "0000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.ParsePeriod(tc.expr)
			require.Error(t, err)
			assert.True(t, ledger.IsPeriodError(err))

			var mp *ledger.MalformedPeriodError
			require.True(t, errors.As(err, &mp))
			assert.Equal(t, tc.expr, mp.Input)
			assert.Equal(t, tc.token, mp.Token)
		})
	}
}

// =============================================================================
// RESOLVER TESTS
// =============================================================================

func TestResolver_EmptyIsCurrentMonth(t *testing.T) {
	r := ledger.NewResolver(fixedClock(time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC)))

	for _, expr := range []string{"", "   "} {
		iv, err := r.Resolve(expr)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.February, 1), iv.Start)
		assert.Equal(t, date(2024, time.February, 29), iv.End)
	}
}

func TestResolver_Today(t *testing.T) {
	r := ledger.NewResolver(fixedClock(time.Date(2025, time.June, 3, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, ledger.SingleDay(date(2025, time.June, 3)), r.Today())
}

func TestResolver_DelegatesToParser(t *testing.T) {
	r := ledger.NewResolver(nil)
	iv, err := r.Resolve("2025")
	require.NoError(t, err)
	assert.Equal(t, ledger.YearOf(date(2025, time.March, 3)), iv)

	_, err = r.Resolve("nope")
	assert.ErrorIs(t, err, ledger.ErrMalformedPeriod)
}

func TestDateInterval_Contains(t *testing.T) {
	iv := ledger.DateInterval{Start: date(2025, time.June, 1), End: date(2025, time.June, 30)}
	assert.True(t, iv.Contains(date(2025, time.June, 1)))
	assert.True(t, iv.Contains(date(2025, time.June, 30)))
	assert.False(t, iv.Contains(date(2025, time.July, 1)))
	assert.False(t, iv.Contains(date(2025, time.May, 31)))
	assert.True(t, ledger.AllTime().Contains(date(1970, time.January, 1)))
	assert.Equal(t, "[2025-06-01, 2025-06-30]", iv.String())
}
