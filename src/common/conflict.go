package common

import (
	"eventpass/src/types"
	"fmt"
	"time"
)

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) intersect. Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// DailyWindow is a booking that repeats the same time window on every date
// from StartDate to EndDate inclusive.
type DailyWindow struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SharedDates lists the calendar days covered by both windows.
func SharedDates(a, b DailyWindow) []time.Time {
	start := dateOnly(a.StartDate)
	if s := dateOnly(b.StartDate); s.After(start) {
		start = s
	}
	end := dateOnly(a.EndDate)
	if e := dateOnly(b.EndDate); e.Before(end) {
		end = e
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func clockOn(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(types.TIME_FORMAT, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", types.ErrValidation, hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// WindowsConflict compares the daily windows independently on each shared
// date, building the datetimes in loc.
func WindowsConflict(a, b DailyWindow, loc *time.Location) (bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, day := range SharedDates(a, b) {
		startA, err := clockOn(day, a.StartTime, loc)
		if err != nil {
			return false, err
		}
		endA, err := clockOn(day, a.EndTime, loc)
		if err != nil {
			return false, err
		}
		startB, err := clockOn(day, b.StartTime, loc)
		if err != nil {
			return false, err
		}
		endB, err := clockOn(day, b.EndTime, loc)
		if err != nil {
			return false, err
		}
		if Overlaps(startA, endA, startB, endB) {
			return true, nil
		}
	}
	return false, nil
}
