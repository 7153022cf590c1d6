/*
calculator.go - Worked time, expected exit and surplus

FORMULAS:
  pair duration  = Out - In - lunch, floored at 0; 0 for unmatched pairs.
                   A lunch deduced from a following idle gap is not taken
                   from the pair: the gap already excludes it.
  worked minutes = sum(pair durations) + sum(working gap spans)
  expected exit  = first In + work duration + total day lunch   (nil without In)
  surplus        = last Out - expected exit                      (nil without Out)

  Surplus is never "worked - quota": lunch and working gaps are already
  folded into worked minutes and would be counted twice.

SEE ALSO:
  - pairs.go: where pair lunch and position are resolved
  - gaps.go: which gaps are added to worked time
  - lunch.go: bound checks reported on the DailyReport
*/
package ledger

import "slices"

// =============================================================================
// DAILY REPORT
// =============================================================================

// BuildDailyReport reconciles one date's events and derives its report.
// Events may arrive in any order; a sorted copy is used.
func BuildDailyReport(date Date, events []PunchEvent, cfg Config) DailyReport {
	day := slices.Clone(events)
	SortEvents(day)
	return ReportFromPairs(date, Reconcile(date, day, cfg.DefaultPosition), cfg)
}

// ReportFromPairs derives a report from already reconciled pairs.
func ReportFromPairs(date Date, pairs []Pair, cfg Config) DailyReport {
	pairs = slices.Clone(pairs)
	gaps := ClassifyGaps(pairs)
	settleGapLunch(pairs, gaps)

	r := DailyReport{
		Date:     date,
		Pairs:    pairs,
		Gaps:     gaps,
		Position: DayPosition(pairs),
	}

	for _, p := range pairs {
		r.WorkedMinutes += p.Duration()
		r.LunchMinutes += p.Lunch
		if p.In != nil && r.FirstIn == nil {
			t := p.In.Time
			r.FirstIn = &t
		}
		if p.Out != nil {
			t := p.Out.Time
			r.LastOut = &t
		}
	}
	r.WorkedMinutes += WorkingGapMinutes(gaps)

	r.ExpectedExit = ExpectedExit(r.FirstIn, cfg.WorkDurationMinutes, r.LunchMinutes)
	r.Surplus = Surplus(r.LastOut, r.ExpectedExit)
	r.LunchViolations = LunchViolations(pairs, cfg)
	return r
}

// BuildReports produces one report per date of tl, ascending by date.
func BuildReports(tl Timeline, cfg Config) []DailyReport {
	dates := tl.Dates()
	reports := make([]DailyReport, 0, len(dates))
	for _, d := range dates {
		reports = append(reports, ReportFromPairs(d, Reconcile(d, tl[d], cfg.DefaultPosition), cfg))
	}
	return reports
}

// ExpectedExit is firstIn + work + lunch, or nil when firstIn is nil.
func ExpectedExit(firstIn *ClockTime, workMinutes, lunchMinutes int) *ClockTime {
	if firstIn == nil {
		return nil
	}
	exit := firstIn.Add(workMinutes + lunchMinutes)
	return &exit
}

// Surplus is lastOut - expected, or nil when either is unknown.
func Surplus(lastOut, expected *ClockTime) *int {
	if lastOut == nil || expected == nil {
		return nil
	}
	s := lastOut.Sub(*expected)
	return &s
}

// DayPosition is the shared position of all pairs, PositionMixed when they
// disagree, PositionNone without pairs.
func DayPosition(pairs []Pair) Position {
	if len(pairs) == 0 {
		return PositionNone
	}
	first := pairs[0].Position
	for _, p := range pairs[1:] {
		if p.Position != first {
			return PositionMixed
		}
	}
	return first
}

// =============================================================================
// PERIOD SUMMARY
// =============================================================================

// PeriodSummary totals a run of daily reports.
type PeriodSummary struct {
	Days          int
	WorkedMinutes int
	LunchMinutes  int

	// Surplus sums the days whose surplus is known.
	Surplus        int
	DaysWithOut    int
	UnmatchedPairs int
}

func Summarize(reports []DailyReport) PeriodSummary {
	var s PeriodSummary
	for _, r := range reports {
		s.Days++
		s.WorkedMinutes += r.WorkedMinutes
		s.LunchMinutes += r.LunchMinutes
		if r.Surplus != nil {
			s.Surplus += *r.Surplus
			s.DaysWithOut++
		}
		for _, p := range r.Pairs {
			if p.Unmatched {
				s.UnmatchedPairs++
			}
		}
	}
	return s
}
