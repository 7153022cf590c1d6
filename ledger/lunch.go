package ledger

// =============================================================================
// LUNCH RULES
// =============================================================================

// CheckLunch validates a lunch for a pair at the given position. A zero
// lunch means no break was recorded and always passes, as do positions
// that carry no lunch rule (see Position.ChecksLunch).
func CheckLunch(date Date, pair int, pos Position, lunch int, cfg Config) *LunchOutOfBoundsError {
	if lunch <= 0 || !pos.ChecksLunch() {
		return nil
	}
	if lunch >= cfg.MinLunchMinutes && lunch <= cfg.MaxLunchMinutes {
		return nil
	}
	return &LunchOutOfBoundsError{
		Date:  date,
		Pair:  pair,
		Lunch: lunch,
		Min:   cfg.MinLunchMinutes,
		Max:   cfg.MaxLunchMinutes,
	}
}

// LunchViolations reports every pair whose lunch breaks the bounds. Values
// are reported as recorded, never clamped.
func LunchViolations(pairs []Pair, cfg Config) []*LunchOutOfBoundsError {
	var out []*LunchOutOfBoundsError
	for _, p := range pairs {
		if err := CheckLunch(p.Date, p.Index, p.Position, p.Lunch, cfg); err != nil {
			out = append(out, err)
		}
	}
	return out
}

// =============================================================================
// AUTO LUNCH - Deduce lunch from a midday OUT/IN gap
// =============================================================================

// AutoLunchRule describes the window in which an OUT followed by an IN is
// read as a lunch break.
type AutoLunchRule struct {
	Enabled     bool
	WindowStart ClockTime
	WindowEnd   ClockTime
}

func DefaultAutoLunchRule() AutoLunchRule {
	return AutoLunchRule{
		Enabled:     true,
		WindowStart: NewClockTime(12, 0),
		WindowEnd:   NewClockTime(14, 30),
	}
}

// DeduceLunch returns the lunch to store on prevOut when nextIn is punched.
// It applies when prevOut is at or after WindowStart, nextIn is later than
// prevOut and at or before WindowEnd, prevOut has no lunch yet and neither
// side is a holiday. The gap is clamped to [MinLunch, MaxLunch]; this is the
// only place where lunch is clamped rather than reported.
func DeduceLunch(prevOut, nextIn PunchEvent, rule AutoLunchRule, cfg Config) (int, bool) {
	if !rule.Enabled || !prevOut.IsOut() || !nextIn.IsIn() {
		return 0, false
	}
	if prevOut.LunchMinutes() > 0 {
		return 0, false
	}
	if prevOut.Position == PositionHoliday || nextIn.Position == PositionHoliday {
		return 0, false
	}
	if prevOut.Time < rule.WindowStart || nextIn.Time > rule.WindowEnd || nextIn.Time <= prevOut.Time {
		return 0, false
	}

	lunch := nextIn.Time.Sub(prevOut.Time)
	lunch = max(lunch, cfg.MinLunchMinutes)
	lunch = min(lunch, cfg.MaxLunchMinutes)
	return lunch, lunch > 0
}
