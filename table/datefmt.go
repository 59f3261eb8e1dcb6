package table

import (
	"strings"
	"time"
)

const (
	compactLayout = "20060102"
	isoLayout     = "2006-01-02"
)

// dateLayouts are tried in order when a whole column is reinterpreted as dates.
var dateLayouts = []string{
	isoLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01-02-06", // excelize rendering of the built-in short date format
	"1/2/2006",
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"2-Jan-2006",
	"2-Jan-06",
}

// IsValidDateFormat reports whether s is an eight digit YYYYMMDD calendar date.
func IsValidDateFormat(s string) bool {
	_, ok := parseCompact(s)
	return ok
}

// CorrectDateFormat rewrites a YYYYMMDD date as YYYY-MM-DD.
// Anything else is returned unchanged.
func CorrectDateFormat(s string) string {
	t, ok := parseCompact(s)
	if !ok {
		return s
	}
	return t.Format(isoLayout)
}

func parseCompact(s string) (time.Time, bool) {
	if len(s) != len(compactLayout) {
		return time.Time{}, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.Parse(compactLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate parses s with the first matching layout and drops the time of day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return civil(t), true
		}
	}
	return time.Time{}, false
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeDates rewrites every YYYYMMDD value in place.
func NormalizeDates(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if IsValidDateFormat(v) {
			v = CorrectDateFormat(v)
		}
		out[i] = v
	}
	return out
}

// reinterpretDates parses every non-empty value as a date.
// It fails as a whole when any value does not parse, or when there is nothing to parse.
func reinterpretDates(values []string) (dates []time.Time, present []bool, ok bool) {
	dates = make([]time.Time, len(values))
	present = make([]bool, len(values))
	seen := 0
	for i, v := range values {
		if v == "" {
			continue
		}
		t, parsed := ParseDate(v)
		if !parsed {
			return nil, nil, false
		}
		dates[i] = t
		present[i] = true
		seen++
	}
	return dates, present, seen > 0
}
