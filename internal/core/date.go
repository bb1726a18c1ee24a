package core

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp; timestamps are
// truncated to their UTC calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

// MarshalText implements encoding.TextMarshaler so dates travel as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// InRange reports whether d lies within [from, to]; zero bounds are open.
func (d Date) InRange(from, to Date) bool {
	if !from.IsZero() && d.Before(from.Time) {
		return false
	}
	if !to.IsZero() && d.After(to.Time) {
		return false
	}
	return true
}
