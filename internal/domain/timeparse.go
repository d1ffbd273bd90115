package domain

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Now returns the current time in UTC at the microsecond resolution
// PostgreSQL stores.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to UTC and truncates it to microseconds.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// ParseTimestamp parses a client supplied timestamp. Values without an
// explicit offset are read as UTC. The field name is used in the returned
// ValidationError.
func ParseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError(field, "is required", nil)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Normalize(t), nil
		}
	}

	return time.Time{}, NewValidationError(field, "is not a valid date or timestamp", ErrInvalidFormat)
}
