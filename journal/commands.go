package journal

import (
	"context"
	"fmt"

	"github.com/warp/worklog/ledger"
)

// =============================================================================
// ADD PUNCH
// =============================================================================

// PunchInput is one add command. At least one of In, Out or Lunch is set.
type PunchInput struct {
	In       *ledger.ClockTime
	Out      *ledger.ClockTime
	Lunch    *int
	Position ledger.Position
	WorkGap  *bool
	Source   string
}

// AddPunch records an IN, an OUT, an IN+OUT pair or, with neither time
// given, a lunch on the day's last event.
//
//   - IN only: opens a new pair; a midday OUT before it may get an auto lunch.
//   - OUT only: closes the latest open IN of the day, which must be earlier,
//     and must fall before any punch that follows that IN.
//   - IN+OUT: a closed pair; OUT must be later than IN. Lunch goes on the OUT.
func (s *Service) AddPunch(ctx context.Context, date ledger.Date, in PunchInput) (ledger.DailyReport, error) {
	if in.Lunch != nil && *in.Lunch < 0 {
		return ledger.DailyReport{}, ErrInvalidLunch
	}
	switch {
	case in.In == nil && in.Out == nil && in.Lunch == nil:
		return ledger.DailyReport{}, ErrNothingToDo
	case in.In == nil && in.Out == nil:
		return s.SetLunch(ctx, date, *in.Lunch)
	case in.In != nil && in.Out != nil && *in.Out <= *in.In:
		return ledger.DailyReport{}, fmt.Errorf("%w: %s is not after %s", ErrOutBeforeIn, in.Out, in.In)
	}

	var (
		report    ledger.DailyReport
		autoLunch *autoLunchResult
	)
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		var written []ledger.EventID

		if in.In == nil {
			id, err := s.closeOpenIn(ctx, tx, date, in)
			if err != nil {
				return err
			}
			written = append(written, id)
		} else {
			inEvent := s.newEvent(date, *in.In, ledger.KindIn, in)
			if in.Out == nil {
				inEvent.Lunch = in.Lunch
			}
			id, err := tx.InsertEvent(ctx, inEvent)
			if err != nil {
				return err
			}
			written = append(written, id)

			if in.Out != nil {
				outEvent := s.newEvent(date, *in.Out, ledger.KindOut, in)
				outEvent.Lunch = in.Lunch
				outEvent.WorkGap = in.WorkGap
				outID, err := tx.InsertEvent(ctx, outEvent)
				if err != nil {
					return err
				}
				written = append(written, outID)
			} else {
				inEvent.ID = id
				if autoLunch, err = s.applyAutoLunch(ctx, tx, date, inEvent); err != nil {
					return err
				}
			}
		}

		var err error
		if report, err = s.recompute(ctx, tx, date); err != nil {
			return err
		}
		if in.Out != nil && !landsMatched(report.Pairs, written) {
			return fmt.Errorf("%w: OUT %s on %s does not close its IN", ErrCrossesPair, in.Out, date)
		}
		return s.checkLunch(report, written...)
	})
	if err != nil {
		return ledger.DailyReport{}, err
	}

	s.record(ctx, ledger.AuditAdd, date.String(), "added %s on %s", describePunch(in), date)
	if autoLunch != nil {
		s.record(ctx, ledger.AuditAutoLunch, date.String(),
			"auto lunch of %d min on OUT %s (gap %s-%s)", autoLunch.minutes, autoLunch.out, autoLunch.out, autoLunch.in)
	}
	return report, nil
}

func (s *Service) newEvent(date ledger.Date, at ledger.ClockTime, kind ledger.Kind, in PunchInput) ledger.PunchEvent {
	source := in.Source
	if source == "" {
		source = "api"
	}
	return ledger.PunchEvent{
		Date:      date,
		Time:      at,
		Kind:      kind,
		Position:  in.Position,
		Source:    source,
		CreatedAt: s.now().UTC(),
	}
}

// closeOpenIn inserts an OUT for the latest unmatched IN of the day. The OUT
// must fall before any later punch, or it would land in a pair of its own.
func (s *Service) closeOpenIn(ctx context.Context, tx ledger.EventStore, date ledger.Date, in PunchInput) (ledger.EventID, error) {
	events, err := tx.EventsByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	pairs := ledger.Reconcile(date, events, s.cfg.DefaultPosition)

	var open *ledger.Pair
	for i := len(pairs) - 1; i >= 0; i-- {
		if pairs[i].In != nil && pairs[i].Out == nil {
			open = &pairs[i]
			break
		}
	}
	if open == nil {
		return 0, fmt.Errorf("%w (%s)", ErrNoOpenIn, date)
	}
	if *in.Out <= open.In.Time {
		return 0, fmt.Errorf("%w: %s is not after %s", ErrOutBeforeIn, in.Out, open.In.Time)
	}
	// The OUT must sort right after the IN it closes.
	for i, e := range events {
		if e.ID == open.In.ID && i+1 < len(events) && *in.Out >= events[i+1].Time {
			next := events[i+1]
			return 0, fmt.Errorf("%w: IN %s is followed by %s %s", ErrCrossesPair, open.In.Time, next.Kind, next.Time)
		}
	}

	out := s.newEvent(date, *in.Out, ledger.KindOut, in)
	out.Lunch = in.Lunch
	out.WorkGap = in.WorkGap
	return tx.InsertEvent(ctx, out)
}

type autoLunchResult struct {
	minutes int
	out     ledger.ClockTime
	in      ledger.ClockTime
}

// applyAutoLunch stores a deduced lunch on the latest OUT before newIn.
func (s *Service) applyAutoLunch(ctx context.Context, tx ledger.EventStore, date ledger.Date, newIn ledger.PunchEvent) (*autoLunchResult, error) {
	if !s.rule.Enabled {
		return nil, nil
	}
	events, err := tx.EventsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	var prevOut *ledger.PunchEvent
	for i := range events {
		e := events[i]
		if e.IsOut() && e.Time < newIn.Time {
			prevOut = &events[i]
		}
	}
	if prevOut == nil {
		return nil, nil
	}
	minutes, ok := ledger.DeduceLunch(*prevOut, newIn, s.rule, s.cfg)
	if !ok {
		return nil, nil
	}
	prevOut.Lunch = ledger.IntPtr(minutes)
	prevOut.LunchDeduced = true
	if err := tx.UpdateEvent(ctx, *prevOut); err != nil {
		return nil, err
	}
	return &autoLunchResult{minutes: minutes, out: prevOut.Time, in: newIn.Time}, nil
}

func describePunch(in PunchInput) string {
	switch {
	case in.In != nil && in.Out != nil:
		return fmt.Sprintf("pair %s-%s", in.In, in.Out)
	case in.In != nil:
		return "IN " + in.In.String()
	default:
		return "OUT " + in.Out.String()
	}
}

// =============================================================================
// SET LUNCH
// =============================================================================

// SetLunch sets the lunch of the day's last event.
func (s *Service) SetLunch(ctx context.Context, date ledger.Date, minutes int) (ledger.DailyReport, error) {
	if minutes < 0 {
		return ledger.DailyReport{}, ErrInvalidLunch
	}
	var report ledger.DailyReport
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		events, err := tx.EventsByDate(ctx, date)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("%w: %s", ErrNoEventsForDate, date)
		}
		last := events[len(events)-1]
		last.Lunch = ledger.IntPtr(minutes)
		last.LunchDeduced = false
		if err := tx.UpdateEvent(ctx, last); err != nil {
			return err
		}
		if report, err = s.recompute(ctx, tx, date); err != nil {
			return err
		}
		return s.checkLunch(report, last.ID)
	})
	if err != nil {
		return ledger.DailyReport{}, err
	}
	s.record(ctx, ledger.AuditEdit, date.String(), "lunch set to %d min on %s", minutes, date)
	return report, nil
}

// =============================================================================
// EDIT PAIR
// =============================================================================

// PairEdit lists the fields to change; nil fields are kept.
type PairEdit struct {
	Position *ledger.Position
	In       *ledger.ClockTime
	Out      *ledger.ClockTime
	Lunch    *int
	WorkGap  *bool
}

func (e PairEdit) empty() bool {
	return e.Position == nil && e.In == nil && e.Out == nil && e.Lunch == nil && e.WorkGap == nil
}

// EditPair modifies pair index of date. A missing side is created when its
// time is given. Lunch is written on the OUT when there is one.
func (s *Service) EditPair(ctx context.Context, date ledger.Date, index int, edit PairEdit) (ledger.DailyReport, error) {
	if edit.empty() {
		return ledger.DailyReport{}, ErrNothingToDo
	}
	if edit.Lunch != nil && *edit.Lunch < 0 {
		return ledger.DailyReport{}, ErrInvalidLunch
	}

	var report ledger.DailyReport
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		pair, err := s.findPair(ctx, tx, date, index)
		if err != nil {
			return err
		}

		in, out := cloneEvent(pair.In), cloneEvent(pair.Out)
		if edit.In != nil {
			if in == nil {
				in = &ledger.PunchEvent{Date: date, Kind: ledger.KindIn, Position: pair.Position, Source: "edit", CreatedAt: s.now().UTC()}
			}
			in.Time = *edit.In
		}
		if edit.Out != nil {
			if out == nil {
				out = &ledger.PunchEvent{Date: date, Kind: ledger.KindOut, Position: pair.Position, Source: "edit", CreatedAt: s.now().UTC()}
			}
			out.Time = *edit.Out
		}
		if in != nil && out != nil && out.Time <= in.Time {
			return fmt.Errorf("%w: %s is not after %s", ErrOutBeforeIn, out.Time, in.Time)
		}
		if edit.Position != nil {
			for _, e := range []*ledger.PunchEvent{in, out} {
				if e != nil {
					e.Position = *edit.Position
				}
			}
		}
		if edit.Lunch != nil {
			if out != nil {
				out.Lunch = edit.Lunch
				out.LunchDeduced = false
				if in != nil && in.Lunch != nil {
					in.Lunch = nil
				}
			} else {
				in.Lunch = edit.Lunch
			}
		}
		if edit.WorkGap != nil {
			if out == nil {
				return fmt.Errorf("%w: pair %d on %s", ErrPairHasNoOut, index, date)
			}
			out.WorkGap = edit.WorkGap
		}

		var written []ledger.EventID
		for _, e := range []*ledger.PunchEvent{in, out} {
			if e == nil {
				continue
			}
			id, err := upsert(ctx, tx, *e)
			if err != nil {
				return err
			}
			written = append(written, id)
		}

		if report, err = s.recompute(ctx, tx, date); err != nil {
			return err
		}
		return s.checkLunch(report, written...)
	})
	if err != nil {
		return ledger.DailyReport{}, err
	}
	s.record(ctx, ledger.AuditEdit, pairTarget(date, index), "edited pair %d on %s", index, date)
	return report, nil
}

// =============================================================================
// WORK GAP FLAG
// =============================================================================

// SetWorkGap sets or, with nil, clears the work-gap flag on pair index's OUT.
// The flag decides whether the gap after that pair counts as work.
func (s *Service) SetWorkGap(ctx context.Context, date ledger.Date, index int, flag *bool) (ledger.DailyReport, error) {
	var report ledger.DailyReport
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		pair, err := s.findPair(ctx, tx, date, index)
		if err != nil {
			return err
		}
		if pair.Out == nil {
			return fmt.Errorf("%w: pair %d on %s", ErrPairHasNoOut, index, date)
		}
		out := *pair.Out
		out.WorkGap = flag
		if err := tx.UpdateEvent(ctx, out); err != nil {
			return err
		}
		report, err = s.recompute(ctx, tx, date)
		return err
	})
	if err != nil {
		return ledger.DailyReport{}, err
	}
	s.record(ctx, ledger.AuditWorkGap, pairTarget(date, index), "work gap after pair %d on %s set to %s", index, date, flagString(flag))
	return report, nil
}

func flagString(flag *bool) string {
	switch {
	case flag == nil:
		return "unset"
	case *flag:
		return "working"
	default:
		return "non-working"
	}
}

// =============================================================================
// DELETE
// =============================================================================

// DeletePair removes both events of pair index. Remaining pairs are renumbered.
func (s *Service) DeletePair(ctx context.Context, date ledger.Date, index int) (ledger.DailyReport, error) {
	var report ledger.DailyReport
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		pair, err := s.findPair(ctx, tx, date, index)
		if err != nil {
			return err
		}
		var ids []ledger.EventID
		for _, e := range []*ledger.PunchEvent{pair.In, pair.Out} {
			if e != nil {
				ids = append(ids, e.ID)
			}
		}
		if err := tx.DeleteEvents(ctx, ids...); err != nil {
			return err
		}
		report, err = s.recompute(ctx, tx, date)
		return err
	})
	if err != nil {
		return ledger.DailyReport{}, err
	}
	s.record(ctx, ledger.AuditDelete, pairTarget(date, index), "deleted pair %d on %s", index, date)
	return report, nil
}

// DeleteDay removes every event of date and returns how many were removed.
func (s *Service) DeleteDay(ctx context.Context, date ledger.Date) (int, error) {
	var removed int
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		events, err := tx.EventsByDate(ctx, date)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("%w: %s", ErrNoEventsForDate, date)
		}
		ids := make([]ledger.EventID, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		removed = len(ids)
		return tx.DeleteEvents(ctx, ids...)
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, ledger.AuditDelete, date.String(), "deleted %d events on %s", removed, date)
	return removed, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) findPair(ctx context.Context, tx ledger.EventStore, date ledger.Date, index int) (ledger.Pair, error) {
	events, err := tx.EventsByDate(ctx, date)
	if err != nil {
		return ledger.Pair{}, err
	}
	if len(events) == 0 {
		return ledger.Pair{}, fmt.Errorf("%w: %s", ErrNoEventsForDate, date)
	}
	pair, ok := ledger.FindPair(ledger.Reconcile(date, events, s.cfg.DefaultPosition), index)
	if !ok {
		return ledger.Pair{}, fmt.Errorf("%w: pair %d on %s", ErrPairNotFound, index, date)
	}
	return pair, nil
}

// landsMatched reports whether every id sits in a matched pair.
func landsMatched(pairs []ledger.Pair, ids []ledger.EventID) bool {
	for _, id := range ids {
		matched := false
		for _, p := range pairs {
			if p.Unmatched || p.In == nil || p.Out == nil {
				continue
			}
			if p.In.ID == id || p.Out.ID == id {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func upsert(ctx context.Context, tx ledger.EventStore, e ledger.PunchEvent) (ledger.EventID, error) {
	if e.ID == 0 {
		return tx.InsertEvent(ctx, e)
	}
	return e.ID, tx.UpdateEvent(ctx, e)
}

func cloneEvent(e *ledger.PunchEvent) *ledger.PunchEvent {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func pairTarget(date ledger.Date, index int) string {
	return fmt.Sprintf("%s#%d", date, index)
}
