package ledger

import (
	"cmp"
	"slices"
)

// =============================================================================
// TIMELINE BUILDER - Group by date, order by time
// =============================================================================

// Timeline maps each date to its chronologically sorted events.
// Dates without events are absent.
type Timeline map[Date][]PunchEvent

// BuildTimeline groups events by date and sorts each day by time of day,
// breaking ties by ascending id. The input slice is not modified.
func BuildTimeline(events []PunchEvent) Timeline {
	tl := make(Timeline)
	for _, e := range events {
		tl[e.Date] = append(tl[e.Date], e)
	}
	for _, day := range tl {
		SortEvents(day)
	}
	return tl
}

// SortEvents orders one day's events in place.
func SortEvents(events []PunchEvent) {
	slices.SortStableFunc(events, compareEvents)
}

func compareEvents(a, b PunchEvent) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Dates returns the timeline's dates in ascending order.
func (tl Timeline) Dates() []Date {
	dates := make([]Date, 0, len(tl))
	for d := range tl {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b Date) int { return a.compare(b) })
	return dates
}

// Len is the total number of events across all dates.
func (tl Timeline) Len() int {
	n := 0
	for _, day := range tl {
		n += len(day)
	}
	return n
}
