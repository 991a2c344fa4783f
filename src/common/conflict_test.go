package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		startA, endA, startB, endB string
		want                       bool
	}{
		{"partial overlap", "10:00", "12:00", "11:00", "13:00", true},
		{"touching end", "10:00", "11:00", "11:00", "12:00", false},
		{"contained", "09:00", "17:00", "12:00", "13:00", true},
		{"disjoint", "08:00", "09:00", "10:00", "11:00", false},
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(at(tt.startA), at(tt.endA), at(tt.startB), at(tt.endB)))
			assert.Equal(t, tt.want, Overlaps(at(tt.startB), at(tt.endB), at(tt.startA), at(tt.endA)))
		})
	}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestSharedDates(t *testing.T) {
	a := DailyWindow{StartDate: day("2025-03-10"), EndDate: day("2025-03-14")}
	b := DailyWindow{StartDate: day("2025-03-13"), EndDate: day("2025-03-20")}
	assert.Equal(t, []time.Time{day("2025-03-13"), day("2025-03-14")}, SharedDates(a, b))

	c := DailyWindow{StartDate: day("2025-04-01"), EndDate: day("2025-04-02")}
	assert.Empty(t, SharedDates(a, c))
}

func TestWindowsConflict(t *testing.T) {
	base := DailyWindow{StartDate: day("2025-03-10"), EndDate: day("2025-03-12"), StartTime: "09:00", EndTime: "11:00"}
	tests := []struct {
		name  string
		other DailyWindow
		want  bool
	}{
		{"same day overlapping", DailyWindow{StartDate: day("2025-03-11"), EndDate: day("2025-03-11"), StartTime: "10:30", EndTime: "12:00"}, true},
		{"same day back to back", DailyWindow{StartDate: day("2025-03-11"), EndDate: day("2025-03-11"), StartTime: "11:00", EndTime: "12:00"}, false},
		{"overlapping time on other dates", DailyWindow{StartDate: day("2025-03-13"), EndDate: day("2025-03-15"), StartTime: "09:00", EndTime: "11:00"}, false},
		{"multi-day overlap on last day", DailyWindow{StartDate: day("2025-03-12"), EndDate: day("2025-03-20"), StartTime: "08:00", EndTime: "09:30"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WindowsConflict(base, tt.other, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowsConflictInLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*60*60+30*60)
	a := DailyWindow{StartDate: day("2025-03-10"), EndDate: day("2025-03-10"), StartTime: "09:00", EndTime: "10:00"}
	b := DailyWindow{StartDate: day("2025-03-10"), EndDate: day("2025-03-10"), StartTime: "09:30", EndTime: "09:45"}
	got, err := WindowsConflict(a, b, loc)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestWindowsConflictInvalidTime(t *testing.T) {
	a := DailyWindow{StartDate: day("2025-03-10"), EndDate: day("2025-03-10"), StartTime: "9am", EndTime: "10:00"}
	_, err := WindowsConflict(a, a, nil)
	assert.Error(t, err)
}
