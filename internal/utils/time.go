package utils

import (
	"fmt"
	"strings"
	"time"
)

const layoutDate = "2006-01-02"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// IsPastDate reports whether a travel date lies before today. Parse
// failures count as past so validation rejects them.
func IsPastDate(s string, now time.Time) bool {
	d, err := ParseDate(s)
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// Duration renders the gap between two HH:MM strings as "1h 30m".
// Crossing midnight wraps forward. Empty on parse failure.
func Duration(depart, arrive string) string {
	d, err1 := time.Parse("15:04", strings.TrimSpace(depart))
	a, err2 := time.Parse("15:04", strings.TrimSpace(arrive))
	if err1 != nil || err2 != nil {
		return ""
	}
	gap := a.Sub(d)
	if gap < 0 {
		gap += 24 * time.Hour
	}
	h := int(gap.Hours())
	m := int(gap.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
