package normalize

import (
	"strings"
	"time"
)

// Date formats seen across the operations team's exported reports.
// Day-first layouts only; the exporters never emit month-first dates.
var dateFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
}

// ParseDate attempts to parse a date string in multiple known formats,
// truncating to midnight UTC. Returns nil if the input is empty or
// unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}
