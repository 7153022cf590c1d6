package ledger

// =============================================================================
// GAP CLASSIFIER - Does the time between two pairs count as work?
// =============================================================================

// ClassifyGaps returns one decision per boundary between two consecutive
// matched pairs. The flag comes from the earlier pair's OUT; a missing flag
// means non-working. Boundaries touching an unmatched pair are skipped.
func ClassifyGaps(pairs []Pair) []GapDecision {
	var gaps []GapDecision
	for k := 0; k+1 < len(pairs); k++ {
		prev, next := pairs[k], pairs[k+1]
		if prev.Unmatched || next.Unmatched {
			continue
		}
		gaps = append(gaps, GapDecision{
			Date:         prev.Date,
			After:        prev.Index,
			Start:        prev.Out.Time,
			End:          next.In.Time,
			CountsAsWork: prev.Out.WorkGap != nil && *prev.Out.WorkGap,
		})
	}
	return gaps
}

// WorkingGapMinutes sums the spans of gaps that count as work.
func WorkingGapMinutes(gaps []GapDecision) int {
	total := 0
	for _, g := range gaps {
		if g.CountsAsWork {
			total += g.Minutes()
		}
	}
	return total
}

// settleGapLunch keeps LunchInGap only on pairs followed by a non-working
// gap. Without one, the break is still taken from the pair itself.
func settleGapLunch(pairs []Pair, gaps []GapDecision) {
	idle := make(map[int]bool, len(gaps))
	for _, g := range gaps {
		if !g.CountsAsWork {
			idle[g.After] = true
		}
	}
	for i := range pairs {
		if pairs[i].LunchInGap && !idle[pairs[i].Index] {
			pairs[i].LunchInGap = false
		}
	}
}
