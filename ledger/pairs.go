package ledger

// =============================================================================
// PAIR RECONCILER - FIFO pairing with one open slot
// =============================================================================

// Reconcile pairs one date's events, which must already be sorted (see
// SortEvents). It scans once keeping at most one open IN:
//
//   - IN with a slot open: the open IN is closed as unmatched, the new IN opens.
//   - OUT with a slot open: the pair is closed as matched.
//   - OUT with no slot open: an unmatched OUT-only pair is emitted.
//   - End of scan: a still open IN is emitted as a trailing unmatched pair.
//
// Indices are assigned 1..N in closing order. Position falls back from the
// IN, to the OUT, to the previous pair of the day, to defaultPos.
func Reconcile(date Date, events []PunchEvent, defaultPos Position) []Pair {
	var (
		pairs    []Pair
		open     *PunchEvent
		inherit  = PositionNone
		nextPair = 1
	)

	emit := func(in, out *PunchEvent) {
		p := Pair{
			Date:      date,
			Index:     nextPair,
			In:        in,
			Out:       out,
			Unmatched: in == nil || out == nil,
		}
		p.Position = ResolvePosition(positionOf(in), positionOf(out), inherit, defaultPos)
		p.Lunch, p.LunchInGap = pairLunch(in, out)
		inherit = p.Position
		pairs = append(pairs, p)
		nextPair++
	}

	for _, ev := range events {
		switch ev.Kind {
		case KindIn:
			if open != nil {
				emit(open, nil)
			}
			open = &ev
		case KindOut:
			if open != nil {
				emit(open, &ev)
				open = nil
			} else {
				emit(nil, &ev)
			}
		}
	}
	if open != nil {
		emit(open, nil)
	}
	return pairs
}

// ReconcileTimeline reconciles every date of tl.
func ReconcileTimeline(tl Timeline, defaultPos Position) map[Date][]Pair {
	out := make(map[Date][]Pair, len(tl))
	for d, events := range tl {
		out[d] = Reconcile(d, events, defaultPos)
	}
	return out
}

// PairIndices maps every event to the index of the pair it landed in.
// Storage persists these after a mutation.
func PairIndices(pairs []Pair) map[EventID]int {
	idx := make(map[EventID]int, 2*len(pairs))
	for _, p := range pairs {
		if p.In != nil {
			idx[p.In.ID] = p.Index
		}
		if p.Out != nil {
			idx[p.Out.ID] = p.Index
		}
	}
	return idx
}

// FindPair returns the pair with the given 1-based index.
func FindPair(pairs []Pair, index int) (Pair, bool) {
	if index < 1 || index > len(pairs) {
		return Pair{}, false
	}
	return pairs[index-1], true
}

func positionOf(e *PunchEvent) Position {
	if e == nil {
		return PositionNone
	}
	return e.Position
}

// pairLunch takes the first positive lunch of OUT then IN, and whether it
// was deduced from the gap after the OUT.
func pairLunch(in, out *PunchEvent) (int, bool) {
	for _, e := range []*PunchEvent{out, in} {
		if e != nil && e.LunchMinutes() > 0 {
			return e.LunchMinutes(), e.LunchDeduced && e.IsOut()
		}
	}
	return 0, false
}
