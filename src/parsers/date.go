package parsers

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate resolves a textual date in one of the orders observed across the
// survey exports (YYYY-M-D, D/M/YYYY, M/D/YYYY, with "/" or "-" separators).
// The boolean is false whenever the text cannot be resolved to a valid
// calendar date: wrong token count, non-numeric tokens, no 4-digit year
// anchor, or out-of-range day/month values.
//
// When both the first and second token could be a day or a month, the
// day-first reading wins. Month-first is only used when the middle token
// cannot be a month (e.g. "06-20-2028").
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	parts := splitDateTokens(s)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if !isDigits(p) {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	a, b, c := nums[0], nums[1], nums[2]

	var year, month, day int
	switch {
	case len(parts[0]) > 3: // YYYY-M-D
		year, month, day = a, b, c
	case len(parts[2]) > 3 && a > 12: // D/M/YYYY, first token cannot be a month
		day, month, year = a, b, c
	case len(parts[2]) > 3 && b >= 1 && b <= 12: // D/M/YYYY preferred when b is a plausible month
		day, month, year = a, b, c
	case len(parts[2]) > 3: // M/D/YYYY, middle token cannot be a month
		month, day, year = a, b, c
	default:
		// No 4-digit year anchor: too ambiguous to guess.
		return time.Time{}, false
	}

	return makeStrictDate(year, month, day)
}

// splitDateTokens splits on "/" or "-" keeping empty tokens, so that
// malformed inputs like "1//2020" fail the all-digits check instead of
// silently collapsing to fewer tokens.
func splitDateTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-'
	})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// makeStrictDate builds a date and verifies it round-trips, so month 13 or
// day 32 are rejected instead of wrapping into the next period.
func makeStrictDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
