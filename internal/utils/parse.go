package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMinutes  = errors.New("must be a non-negative number of minutes")
	ErrInvalidDateTime = errors.New("must be an RFC3339 timestamp, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD")
)

// Layouts accepted by ParseDateTime. Layouts without an offset are read in the
// caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseMinutes parses a duration in minutes given as a decimal string.
// Fractions are rounded to the nearest minute.
func ParseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMinutes
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidMinutes
	}
	return RoundMinutes(f)
}

// RoundMinutes validates and rounds a minute count.
func RoundMinutes(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0, ErrInvalidMinutes
	}
	return int(math.Round(f)), nil
}

// ParseDateTime parses s and returns it in UTC. Values without an explicit
// offset are interpreted in loc; a nil loc means UTC.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}
	return t, nil
}
