package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWorkDuration converts a work duration setting to minutes.
//
// Accepted forms:
//
//	8h | 7h 36m | 7h36m | 45m | 07:36 | 8 (plain hours)
func ParseWorkDuration(s string) (int, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("empty work duration")
	}

	if h, m, ok := strings.Cut(raw, ":"); ok {
		hours, errH := strconv.Atoi(h)
		mins, errM := strconv.Atoi(m)
		if errH != nil || errM != nil || hours < 0 || mins < 0 || mins > 59 || len(m) != 2 {
			return 0, fmt.Errorf("invalid work duration %q: expected HH:MM", s)
		}
		return positive(s, hours*60+mins)
	}

	if hours, err := strconv.Atoi(raw); err == nil {
		return positive(s, hours*60)
	}

	total, num, sawUnit := 0, "", false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'h' || r == 'm':
			if num == "" {
				return 0, fmt.Errorf("invalid work duration %q: unit without a number", s)
			}
			n, _ := strconv.Atoi(num)
			if r == 'h' {
				total += n * 60
			} else {
				total += n
			}
			num, sawUnit = "", true
		case r == ' ':
			if num != "" {
				return 0, fmt.Errorf("invalid work duration %q: number without a unit", s)
			}
		default:
			return 0, fmt.Errorf("invalid work duration %q", s)
		}
	}
	if num != "" || !sawUnit {
		return 0, fmt.Errorf("invalid work duration %q: number without a unit", s)
	}
	return positive(s, total)
}

func positive(s string, minutes int) (int, error) {
	if minutes <= 0 {
		return 0, fmt.Errorf("work duration %q must be positive", s)
	}
	return minutes, nil
}
