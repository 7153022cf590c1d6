/*
Package ledger provides the timeline reconciliation engine of the work-time ledger.

PURPOSE:
  Users record raw clock IN/OUT punches per calendar date. This package turns
  an unordered snapshot of those punches into ordered IN/OUT pairs, decides
  which gaps between pairs count as work, and derives worked minutes, the
  expected exit time and the daily surplus against a configured quota. It
  also resolves user supplied period expressions into date intervals.

KEY CONCEPTS IN THIS FILE (types.go):
  - PunchEvent: one stored clock IN or OUT (owned by storage, read-only here)
  - Pair: one reconciled IN/OUT span of a day, indexed 1..N per date
  - GapDecision: whether the time between two matched pairs counts as work
  - DailyReport: everything derived for one date
  - Config: the explicit work rules threaded into every computation

PIPELINE:
  interval := resolver.Resolve("2025-06")        // period.go
  events   := store.FetchEvents(ctx, interval)   // storage, external
  days     := BuildTimeline(events)              // timeline.go
  pairs    := Reconcile(date, days[date], pos)   // pairs.go
  gaps     := ClassifyGaps(pairs)                // gaps.go
  report   := BuildDailyReport(date, days[date], cfg) // calculator.go

DESIGN PRINCIPLES:
  1. Pure: no I/O, no clocks except the injectable one in the resolver
  2. Derived values are recomputed on every call, never cached
  3. Missing data is nil, never a zero that looks like a real value
  4. Minutes are single signed integers

SEE ALSO:
  - period.go: Period Resolver
  - pairs.go: FIFO pair reconciliation
  - calculator.go: Duration, expected exit and surplus
  - store.go: Storage contracts
*/
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// KIND - IN or OUT
// =============================================================================

type Kind string

const (
	KindIn  Kind = "in"
	KindOut Kind = "out"
)

// ParseKind accepts "in"/"out" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return KindIn, nil
	case "out":
		return KindOut, nil
	}
	return "", fmt.Errorf("invalid event kind %q", s)
}

// =============================================================================
// POSITION - Where the work happened
// =============================================================================

// Position is a one-letter location code. The empty value means "not given".
type Position string

const (
	PositionNone    Position = ""
	PositionOffice  Position = "O"
	PositionRemote  Position = "R"
	PositionHoliday Position = "H"
	PositionOnSite  Position = "C"
	PositionMixed   Position = "M"
)

// ParsePosition accepts a code in any case.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return PositionNone, fmt.Errorf("invalid position code %q", s)
	}
	return p, nil
}

func (p Position) Valid() bool {
	switch p {
	case PositionOffice, PositionRemote, PositionHoliday, PositionOnSite, PositionMixed:
		return true
	}
	return false
}

func (p Position) Label() string {
	switch p {
	case PositionOffice:
		return "Office"
	case PositionRemote:
		return "Remote"
	case PositionHoliday:
		return "Holiday"
	case PositionOnSite:
		return "On-site (Client)"
	case PositionMixed:
		return "Mixed"
	}
	return "Unknown"
}

// ChecksLunch reports whether lunch bounds apply to pairs at this position.
func (p Position) ChecksLunch() bool {
	return p != PositionHoliday && p != PositionMixed && p != PositionNone
}

// ResolvePosition returns the first present position in priority order.
func ResolvePosition(candidates ...Position) Position {
	for _, c := range candidates {
		if c != PositionNone {
			return c
		}
	}
	return PositionNone
}

// =============================================================================
// PUNCH EVENT - Stored clock IN/OUT record
// =============================================================================

type EventID int64

type PunchEvent struct {
	ID       EventID
	Date     Date
	Time     ClockTime
	Kind     Kind
	Position Position // optional

	// Lunch is the break in minutes recorded on this event, nil if absent.
	Lunch *int

	// WorkGap is the explicit flag for the gap that follows an OUT event.
	// Only meaningful on OUT events; nil means "not flagged".
	WorkGap *bool

	// LunchDeduced marks a Lunch deduced from the gap after this OUT. That
	// break lies outside the pair and only moves the expected exit.
	LunchDeduced bool

	// PairIndex is the last index storage persisted; the engine ignores it.
	PairIndex int
	Source    string
	CreatedAt time.Time
}

func (e PunchEvent) IsIn() bool  { return e.Kind == KindIn }
func (e PunchEvent) IsOut() bool { return e.Kind == KindOut }

// LunchMinutes returns the recorded lunch or 0.
func (e PunchEvent) LunchMinutes() int {
	if e.Lunch == nil {
		return 0
	}
	return *e.Lunch
}

func IntPtr(v int) *int    { return &v }
func BoolPtr(v bool) *bool { return &v }

// =============================================================================
// PAIR - Reconciled IN/OUT span
// =============================================================================

// Pair is derived, never stored. Identified by (Date, Index).
type Pair struct {
	Date      Date
	Index     int // 1-based, dense per date
	In        *PunchEvent
	Out       *PunchEvent
	Position  Position
	Lunch     int
	Unmatched bool

	// LunchInGap is set when Lunch was taken in the gap after the pair.
	// The gap already keeps it out of worked time.
	LunchInGap bool
}

// Duration is Out-In-Lunch for a matched pair, floored at zero.
// Unmatched pairs carry no usable span and yield zero. A lunch taken in the
// following gap is not subtracted again.
func (p Pair) Duration() int {
	if p.Unmatched || p.In == nil || p.Out == nil {
		return 0
	}
	if p.LunchInGap {
		return p.Span()
	}
	return max(p.Out.Time.Sub(p.In.Time)-p.Lunch, 0)
}

// Span is Out-In without lunch, floored at zero.
func (p Pair) Span() int {
	if p.Unmatched || p.In == nil || p.Out == nil {
		return 0
	}
	return max(p.Out.Time.Sub(p.In.Time), 0)
}

// =============================================================================
// GAP DECISION - Time between two matched pairs
// =============================================================================

type GapDecision struct {
	Date Date

	// After is the index of the earlier pair; the gap ends at pair After+1.
	After        int
	Start        ClockTime
	End          ClockTime
	CountsAsWork bool
}

// Minutes is the span of the gap, floored at zero.
func (g GapDecision) Minutes() int { return max(g.End.Sub(g.Start), 0) }

// =============================================================================
// DAILY REPORT - Everything derived for one date
// =============================================================================

type DailyReport struct {
	Date  Date
	Pairs []Pair
	Gaps  []GapDecision

	WorkedMinutes int
	LunchMinutes  int

	// FirstIn and LastOut are nil when the day has no such event.
	FirstIn *ClockTime
	LastOut *ClockTime

	// ExpectedExit is nil when no IN exists for the day.
	ExpectedExit *ClockTime

	// Surplus is LastOut-ExpectedExit in minutes, nil when either is unknown.
	Surplus *int

	// Position is the common position of all pairs, or PositionMixed.
	Position Position

	// LunchViolations lists pairs whose lunch is outside the configured bounds.
	LunchViolations []*LunchOutOfBoundsError
}

// HasUnmatched reports whether any pair lacks a side.
func (r DailyReport) HasUnmatched() bool {
	for _, p := range r.Pairs {
		if p.Unmatched {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIG - Work rules
// =============================================================================

// Config is passed explicitly into every computation; there are no globals.
type Config struct {
	DefaultPosition     Position
	WorkDurationMinutes int
	MinLunchMinutes     int
	MaxLunchMinutes     int
}

// DefaultConfig mirrors the shipped configuration file.
func DefaultConfig() Config {
	return Config{
		DefaultPosition:     PositionOffice,
		WorkDurationMinutes: 8 * 60,
		MinLunchMinutes:     30,
		MaxLunchMinutes:     90,
	}
}
