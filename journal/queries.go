package journal

import (
	"context"

	"github.com/warp/worklog/ledger"
)

// ReportSet is the result of a period report.
type ReportSet struct {
	Expression string
	Interval   ledger.DateInterval
	Days       []ledger.DailyReport
	Summary    ledger.PeriodSummary
}

// Reports resolves expr (empty: current month, today: only today) and
// builds one report per date holding events.
func (s *Service) Reports(ctx context.Context, expr string, today bool) (ReportSet, error) {
	interval, err := s.interval(expr, today)
	if err != nil {
		return ReportSet{}, err
	}
	events, err := s.store.FetchEvents(ctx, interval)
	if err != nil {
		return ReportSet{}, err
	}
	days := ledger.BuildReports(ledger.BuildTimeline(events), s.cfg)
	return ReportSet{
		Expression: expr,
		Interval:   interval,
		Days:       days,
		Summary:    ledger.Summarize(days),
	}, nil
}

// Day returns the report of a single date, with an empty report when the
// date holds no events.
func (s *Service) Day(ctx context.Context, date ledger.Date) (ledger.DailyReport, error) {
	events, err := s.store.EventsByDate(ctx, date)
	if err != nil {
		return ledger.DailyReport{}, err
	}
	return ledger.BuildDailyReport(date, events, s.cfg), nil
}

// Events returns the raw events of a period ordered by date, time and id.
func (s *Service) Events(ctx context.Context, expr string, today bool) ([]ledger.PunchEvent, ledger.DateInterval, error) {
	interval, err := s.interval(expr, today)
	if err != nil {
		return nil, ledger.DateInterval{}, err
	}
	events, err := s.store.FetchEvents(ctx, interval)
	if err != nil {
		return nil, interval, err
	}
	tl := ledger.BuildTimeline(events)
	out := make([]ledger.PunchEvent, 0, len(events))
	for _, d := range tl.Dates() {
		out = append(out, tl[d]...)
	}
	return out, interval, nil
}

func (s *Service) interval(expr string, today bool) (ledger.DateInterval, error) {
	if today {
		return s.resolver.Today(), nil
	}
	return s.resolver.Resolve(expr)
}
