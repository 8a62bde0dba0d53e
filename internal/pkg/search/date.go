package search

import (
	"strings"
	"time"
)

// indexTimeLayout is fixed width so lexical order equals chronological order.
const indexTimeLayout = "2006-01-02T15:04:05.000000000Z"

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func formatIndexTime(t time.Time) string {
	return t.UTC().Format(indexTimeLayout)
}

// normalizeDate turns a stored date or instant into its index form.
func normalizeDate(raw string) (string, bool) {
	start, _, ok := parseDateRange(raw)
	if !ok {
		return "", false
	}
	return formatIndexTime(start), true
}

// parseDateRange returns the half-open interval [start, end) a value covers
// at its own precision: a year, a month, a day or a single second.
func parseDateRange(raw string) (time.Time, time.Time, bool) {
	raw = strings.TrimSpace(raw)
	switch len(raw) {
	case 4:
		if start, err := time.Parse("2006", raw); err == nil {
			return start, start.AddDate(1, 0, 0), true
		}
	case 7:
		if start, err := time.Parse("2006-01", raw); err == nil {
			return start, start.AddDate(0, 1, 0), true
		}
	case 10:
		if start, err := time.Parse("2006-01-02", raw); err == nil {
			return start, start.AddDate(0, 0, 1), true
		}
	}
	for _, layout := range instantLayouts {
		if start, err := time.Parse(layout, raw); err == nil {
			start = start.UTC()
			return start, start.Add(time.Second), true
		}
	}
	return time.Time{}, time.Time{}, false
}
