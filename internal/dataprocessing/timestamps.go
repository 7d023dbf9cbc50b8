package dataprocessing

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing cell values. ISO 8601
// variants first, then the date-only and slash formats campaign exports
// commonly carry.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseTimestamp parses a raw cell value against the known layouts. It
// never panics; callers decide how a failed parse degrades (fail-open for
// filters, skip or "Unknown" for breakdowns).
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
