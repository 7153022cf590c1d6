package ledger

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE INTERVAL - Canonical closed range of days
// =============================================================================

// DateInterval is inclusive on both ends and always has Start <= End.
type DateInterval struct {
	Start Date
	End   Date
}

// AllPeriodLiteral is the reserved expression for the whole history.
const AllPeriodLiteral = "all"

var (
	minDate = Date{Year: 1, Month: time.January, Day: 1}
	maxDate = Date{Year: 9999, Month: time.December, Day: 31}
)

// AllTime is the unbounded interval.
func AllTime() DateInterval { return DateInterval{Start: minDate, End: maxDate} }

// SingleDay is the interval holding only d.
func SingleDay(d Date) DateInterval { return DateInterval{Start: d, End: d} }

// MonthOf is the calendar month containing d.
func MonthOf(d Date) DateInterval {
	return DateInterval{Start: StartOfMonth(d.Year, d.Month), End: EndOfMonth(d.Year, d.Month)}
}

// YearOf is the calendar year containing d.
func YearOf(d Date) DateInterval {
	return DateInterval{Start: StartOfYear(d.Year), End: EndOfYear(d.Year)}
}

func (i DateInterval) IsUnbounded() bool { return i == AllTime() }

// Contains returns true if d is within [Start, End].
func (i DateInterval) Contains(d Date) bool {
	return !d.Before(i.Start) && !d.After(i.End)
}

func (i DateInterval) String() string {
	if i.IsUnbounded() {
		return AllPeriodLiteral
	}
	return "[" + i.Start.String() + ", " + i.End.String() + "]"
}

// =============================================================================
// PERIOD RESOLVER - Date expression to interval
// =============================================================================

// Resolver parses period expressions. Now is the clock used for defaults;
// tests inject a fixed one.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver on the given clock, or the system clock if nil.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{Now: now}
}

// Default is the current calendar month.
func (r *Resolver) Default() DateInterval { return CurrentMonth(r.now()) }

// Today is the single-day interval for the resolver's current date.
func (r *Resolver) Today() DateInterval { return SingleDay(DateOf(r.now())) }

func (r *Resolver) now() time.Time {
	if r == nil || r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// CurrentMonth is the calendar month containing now.
func CurrentMonth(now time.Time) DateInterval { return MonthOf(DateOf(now)) }

// Resolve parses expr. An empty expression resolves to Default().
//
// Accepted forms:
//
//	YYYY | YYYY-MM | YYYY-MM-DD | A:B with A and B in the same form | all
func (r *Resolver) Resolve(expr string) (DateInterval, error) {
	if strings.TrimSpace(expr) == "" {
		return r.Default(), nil
	}
	return ParsePeriod(expr)
}

// ParsePeriod parses a non-empty period expression.
func ParsePeriod(expr string) (DateInterval, error) {
	input := strings.TrimSpace(expr)
	if input == "" {
		return DateInterval{}, &MalformedPeriodError{Input: expr, Reason: "empty expression"}
	}
	if strings.EqualFold(input, AllPeriodLiteral) {
		return AllTime(), nil
	}

	startRaw, endRaw, isRange := strings.Cut(input, ":")
	if !isRange {
		iv, _, err := parseUnit(expr, input)
		return iv, err
	}

	if strings.Contains(endRaw, ":") {
		return DateInterval{}, &MalformedPeriodError{Input: expr, Token: endRaw, Reason: "too many ':' separators"}
	}
	startRaw, endRaw = strings.TrimSpace(startRaw), strings.TrimSpace(endRaw)
	if startRaw == "" || endRaw == "" {
		return DateInterval{}, &MalformedPeriodError{Input: expr, Token: input, Reason: "range needs both a start and an end"}
	}

	from, fromUnit, err := parseUnit(expr, startRaw)
	if err != nil {
		return DateInterval{}, err
	}
	to, toUnit, err := parseUnit(expr, endRaw)
	if err != nil {
		return DateInterval{}, err
	}
	if fromUnit != toUnit {
		return DateInterval{}, &MalformedPeriodError{
			Input:  expr,
			Token:  endRaw,
			Reason: "start and end must use the same format (" + fromUnit.String() + " vs " + toUnit.String() + ")",
		}
	}
	if to.Start.Before(from.Start) {
		return DateInterval{}, &InvertedRangeError{Input: expr, Start: from.Start, End: to.Start}
	}
	return DateInterval{Start: from.Start, End: to.End}, nil
}

type periodUnit int

const (
	unitYear periodUnit = iota
	unitMonth
	unitDay
)

func (u periodUnit) String() string {
	switch u {
	case unitYear:
		return "YYYY"
	case unitMonth:
		return "YYYY-MM"
	default:
		return "YYYY-MM-DD"
	}
}

// parseUnit resolves a single-value token to the interval it denotes.
func parseUnit(input, token string) (DateInterval, periodUnit, error) {
	malformed := func(reason string) error {
		return &MalformedPeriodError{Input: input, Token: token, Reason: reason}
	}
	iv, unit, err := parseToken(token, malformed)
	if err != nil {
		return DateInterval{}, 0, err
	}
	// AllTime starts at year 1; nothing is representable before it.
	if iv.Start.Year < 1 {
		return DateInterval{}, 0, malformed("year must be 0001 or later")
	}
	return iv, unit, nil
}

func parseToken(token string, malformed func(string) error) (DateInterval, periodUnit, error) {
	switch len(token) {
	case 4:
		year, ok := digits(token)
		if !ok {
			return DateInterval{}, 0, malformed("invalid year")
		}
		return DateInterval{Start: StartOfYear(year), End: EndOfYear(year)}, unitYear, nil

	case 7:
		if token[4] != '-' {
			return DateInterval{}, 0, malformed("expected YYYY-MM")
		}
		year, okY := digits(token[:4])
		month, okM := digits(token[5:])
		if !okY || !okM {
			return DateInterval{}, 0, malformed("expected YYYY-MM")
		}
		if month < 1 || month > 12 {
			return DateInterval{}, 0, malformed("month must be 01..12")
		}
		m := time.Month(month)
		return DateInterval{Start: StartOfMonth(year, m), End: EndOfMonth(year, m)}, unitMonth, nil

	case 10:
		d, err := ParseDate(token)
		if err != nil {
			return DateInterval{}, 0, malformed("invalid date")
		}
		return SingleDay(d), unitDay, nil
	}
	return DateInterval{}, 0, malformed("unsupported format")
}

// digits parses an all-ASCII-digit string.
func digits(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
