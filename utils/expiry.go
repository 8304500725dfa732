package utils

import (
	"fmt"
	"math"
	"time"
)

// ExpiryStatus mirrors the badge colors in the client UI.
type ExpiryStatus string

const (
	StatusExpired  ExpiryStatus = "expired"
	StatusCritical ExpiryStatus = "critical"
	StatusWarning  ExpiryStatus = "warning"
	StatusSafe     ExpiryStatus = "safe"
)

// ParseExpiryDate parses a plain YYYY-MM-DD calendar date in loc.
func ParseExpiryDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// DaysRemaining returns the whole days between ref and expiry, both truncated
// to midnight first so time-of-day never shifts the answer: the same calendar
// day is always 0, tomorrow is 1, yesterday is -1.
func DaysRemaining(expiry, ref time.Time) int {
	diff := midnight(expiry).Sub(midnight(ref))
	return int(math.Ceil(diff.Hours() / 24))
}

// ClassifyDays buckets a days-remaining value. Thresholds match the client's
// status badges and must not drift.
func ClassifyDays(days int) ExpiryStatus {
	switch {
	case days < 0:
		return StatusExpired
	case days < 2:
		return StatusCritical
	case days < 4:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// DaysText renders the one-line urgency phrasing used in notification bodies.
func DaysText(days int) string {
	switch days {
	case 0:
		return "expires today!"
	case 1:
		return "expires tomorrow!"
	default:
		return fmt.Sprintf("expires in %d days", days)
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
