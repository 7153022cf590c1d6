/*
errors.go - Error taxonomy of the engine

ERROR CATEGORIES:
  1. Period errors - unparsable, mismatched or inverted date expressions
  2. Lunch errors - a pair's lunch outside the configured bounds

  All of them are recoverable; the engine never panics on user data.

USAGE:
  interval, err := resolver.Resolve(expr)
  var mp *ledger.MalformedPeriodError
  if errors.As(err, &mp) {
      // render mp.Token and ledger.PeriodExamples
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedPeriod is returned for an unparsable period expression or a
	// range whose sides use different formats.
	ErrMalformedPeriod = errors.New("malformed period")

	// ErrInvertedRange is returned when a range ends before it starts.
	ErrInvertedRange = errors.New("inverted range: end before start")

	// ErrLunchOutOfBounds is returned when a pair's lunch is outside [min, max].
	ErrLunchOutOfBounds = errors.New("lunch out of bounds")
)

// PeriodExamples lists the accepted period forms for usage guidance.
var PeriodExamples = []string{
	"2025",
	"2025-06",
	"2025-06-15",
	"2025:2026",
	"2025-05:2025-07",
	"2025-06-01:2025-06-10",
	AllPeriodLiteral,
}

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// MalformedPeriodError carries the offending part of the expression.
type MalformedPeriodError struct {
	Input  string
	Token  string
	Reason string
}

func (e *MalformedPeriodError) Error() string {
	if e.Token != "" && e.Token != e.Input {
		return fmt.Sprintf("malformed period %q: %s (at %q)", e.Input, e.Reason, e.Token)
	}
	return fmt.Sprintf("malformed period %q: %s", e.Input, e.Reason)
}

func (e *MalformedPeriodError) Unwrap() error { return ErrMalformedPeriod }

// InvertedRangeError is a malformed period whose end precedes its start.
// It matches both ErrInvertedRange and ErrMalformedPeriod.
type InvertedRangeError struct {
	Input string
	Start Date
	End   Date
}

func (e *InvertedRangeError) Error() string {
	return fmt.Sprintf("inverted range %q: %s is before %s", e.Input, e.End, e.Start)
}

func (e *InvertedRangeError) Unwrap() []error {
	return []error{ErrInvertedRange, ErrMalformedPeriod}
}

// LunchOutOfBoundsError identifies the pair and the violated bounds.
type LunchOutOfBoundsError struct {
	Date  Date
	Pair  int
	Lunch int
	Min   int
	Max   int
}

func (e *LunchOutOfBoundsError) Error() string {
	return fmt.Sprintf("lunch of %d min for pair %d on %s outside [%d, %d]",
		e.Lunch, e.Pair, e.Date, e.Min, e.Max)
}

func (e *LunchOutOfBoundsError) Unwrap() error { return ErrLunchOutOfBounds }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsPeriodError returns true for any period parsing failure.
func IsPeriodError(err error) bool {
	return errors.Is(err, ErrMalformedPeriod) || errors.Is(err, ErrInvertedRange)
}
