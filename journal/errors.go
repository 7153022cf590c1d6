package journal

import (
	"errors"
	"fmt"

	"github.com/warp/worklog/ledger"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNothingToDo is returned when a command carries no change.
	ErrNothingToDo = errors.New("nothing to do: give an IN, an OUT or a lunch")

	// ErrOutBeforeIn is returned when an OUT is not strictly after its IN.
	ErrOutBeforeIn = errors.New("OUT must be later than IN")

	// ErrNoOpenIn is returned for an OUT with no IN left to close that day.
	ErrNoOpenIn = errors.New("no open IN to close on this date")

	// ErrCrossesPair is returned when a new OUT would not pair with its IN
	// because another punch of the day sorts between them.
	ErrCrossesPair = errors.New("punch crosses another pair of the day")

	// ErrPairNotFound is returned when the pair index does not exist for the date.
	ErrPairNotFound = errors.New("pair not found")

	// ErrPairHasNoOut is returned when a work-gap flag targets a pair without OUT.
	ErrPairHasNoOut = errors.New("pair has no OUT to carry the work-gap flag")

	// ErrNoEventsForDate is returned when a date holds no events.
	ErrNoEventsForDate = errors.New("no events for date")

	// ErrInvalidTime is returned for a clock time that is not HH:MM.
	ErrInvalidTime = errors.New("invalid time")

	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPosition is returned for an unknown position code.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidLunch is returned for a negative lunch.
	ErrInvalidLunch = errors.New("lunch must not be negative")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true for errors caused by the caller's input.
func IsClientError(err error) bool {
	return ledger.IsPeriodError(err) ||
		errors.Is(err, ErrNothingToDo) ||
		errors.Is(err, ErrOutBeforeIn) ||
		errors.Is(err, ErrNoOpenIn) ||
		errors.Is(err, ErrCrossesPair) ||
		errors.Is(err, ErrPairHasNoOut) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrInvalidLunch)
}

// IsNotFound returns true for missing dates and pairs.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPairNotFound) || errors.Is(err, ErrNoEventsForDate)
}

// IsLunchViolation returns true when a write was refused for its lunch.
func IsLunchViolation(err error) bool {
	return errors.Is(err, ledger.ErrLunchOutOfBounds)
}

// =============================================================================
// INPUT PARSERS - wrap ledger parse errors in journal sentinels
// =============================================================================

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (ledger.Date, error) {
	d, err := ledger.ParseDate(s)
	if err != nil {
		return ledger.Date{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseClock parses HH:MM.
func ParseClock(s string) (ledger.ClockTime, error) {
	c, err := ledger.ParseClockTime(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidTime, s)
	}
	return c, nil
}

// ParseOptionalClock returns nil for an empty string.
func ParseOptionalClock(s string) (*ledger.ClockTime, error) {
	if s == "" {
		return nil, nil
	}
	c, err := ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ParsePosition accepts an empty code as "not given".
func ParsePosition(s string) (ledger.Position, error) {
	if s == "" {
		return ledger.PositionNone, nil
	}
	p, err := ledger.ParsePosition(s)
	if err != nil {
		return ledger.PositionNone, fmt.Errorf("%w: %q, expected one of O R H C M", ErrInvalidPosition, s)
	}
	return p, nil
}
