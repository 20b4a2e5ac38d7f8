package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(now time.Time, daysAgo int, hour int) time.Time {
	d := now.AddDate(0, 0, -daysAgo)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
}

func TestCalculateStreak(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		checkIns []time.Time
		expected int32
	}{
		{
			name:     "no check-ins",
			checkIns: nil,
			expected: 0,
		},
		{
			name:     "single check-in today",
			checkIns: []time.Time{day(now, 0, 9)},
			expected: 1,
		},
		{
			name:     "single check-in yesterday stays alive",
			checkIns: []time.Time{day(now, 1, 20)},
			expected: 1,
		},
		{
			name:     "single check-in two days ago is broken",
			checkIns: []time.Time{day(now, 2, 9)},
			expected: 0,
		},
		{
			name: "three consecutive days",
			checkIns: []time.Time{
				day(now, 0, 8), day(now, 1, 9), day(now, 2, 21),
			},
			expected: 3,
		},
		{
			name: "gap breaks the walk",
			checkIns: []time.Time{
				day(now, 0, 8), day(now, 1, 9), day(now, 4, 9), day(now, 5, 9),
			},
			expected: 2,
		},
		{
			name: "same-day duplicates count once",
			checkIns: []time.Time{
				day(now, 0, 20), day(now, 0, 8), day(now, 1, 9),
			},
			expected: 2,
		},
		{
			name: "duplicate in the middle of a run",
			checkIns: []time.Time{
				day(now, 0, 8), day(now, 1, 20), day(now, 1, 7), day(now, 2, 9),
			},
			expected: 3,
		},
		{
			name: "streak not anchored to today",
			checkIns: []time.Time{
				day(now, 1, 9), day(now, 2, 9), day(now, 3, 9),
			},
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateStreak(now, tt.checkIns))
		})
	}
}

func TestDaysSinceLastCheckIn(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, -1, DaysSinceLastCheckIn(now, nil))

	today := day(now, 0, 8).Unix()
	assert.Equal(t, 0, DaysSinceLastCheckIn(now, &today))

	// Late yesterday is still one calendar day ago.
	yesterday := day(now, 1, 23).Unix()
	assert.Equal(t, 1, DaysSinceLastCheckIn(now, &yesterday))

	week := day(now, 7, 9).Unix()
	assert.Equal(t, 7, DaysSinceLastCheckIn(now, &week))
}
