package cli

import (
	"fmt"
	"strings"
	"time"
)

// boundaryLayout prints boundaries as full ISO-8601 instants.
const boundaryLayout = "2006-01-02T15:04:05-07:00"

// Layouts tried in order. Those without a zone are read in the configured
// location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04-07:00",
	}
	localLayouts = []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"20060102",
		"20060102T150405",
	}
)

// parseDate parses an ISO-8601 date or date-time. Values without an offset
// are taken in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("Not a valid date: '%s'.", s)
}

func formatBoundary(t time.Time) string {
	if t.IsZero() {
		return "(unbounded)"
	}
	return t.Format(boundaryLayout)
}
