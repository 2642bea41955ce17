package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateKeyLayout is the local date key format used for recurrence exception
// dates and instance keys.
const dateKeyLayout = "2006-01-02"

// DateKey returns t's local date key (yyyy-MM-dd) in t's location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseClock parses an HH:mm string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h, m, nil
}

// WeekStart clamps t to its week's Monday at 00:00 in loc. The Monday
// anchor is the normalization every scheduling run starts from.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	// Monday-first offset for a Sunday-first weekday index.
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset)
}

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtClock returns the instant on day's calendar date at the given clock
// time, preserving day's location.
func AtClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// CombineDate places the time-of-day of clock onto day's calendar date.
// Hour, minute, second and sub-second components all carry over.
func CombineDate(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), day.Location())
}
