package ledger

import "fmt"

// FormatMinutes renders m as HH:MM with one leading '-' when negative,
// e.g. -65 -> "-01:05". Hours and minutes never carry separate signs.
func FormatMinutes(m int) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m/60, m%60)
}

// FormatSignedMinutes is FormatMinutes with an explicit '+' for positive values.
func FormatSignedMinutes(m int) string {
	if m > 0 {
		return "+" + FormatMinutes(m)
	}
	return FormatMinutes(m)
}

// FormatSurplus renders a nullable surplus as "+14", "-3", "0" or "-" for nil.
func FormatSurplus(s *int) string {
	switch {
	case s == nil:
		return "-"
	case *s == 0:
		return "0"
	default:
		return fmt.Sprintf("%+d", *s)
	}
}

// FormatClock renders a nullable clock time, "--:--" for nil.
func FormatClock(c *ClockTime) string {
	if c == nil {
		return "--:--"
	}
	return c.String()
}
