package coach

import "time"

// CalculateStreak computes the consecutive-day check-in streak ending
// today or yesterday. Timestamps must be ordered most recent first.
// A one-day gap is tolerated so a streak survives until the end of the
// day after the last check-in; several check-ins on the same day count
// once.
func CalculateStreak(now time.Time, checkInTimes []time.Time) int32 {
	if len(checkInTimes) == 0 {
		return 0
	}

	loc := now.Location()
	current := dateOf(now, loc)

	var streak int32
	for _, ts := range checkInTimes {
		day := dateOf(ts, loc)
		switch daysBetween(day, current) {
		case 0:
			// Today's check-in, or a same-day duplicate of the last
			// accepted date.
			if streak == 0 {
				streak = 1
			}
			current = day
		case 1:
			streak++
			current = day
		default:
			return streak
		}
	}
	return streak
}

// dateOf truncates a timestamp to midnight in the given location.
func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween returns the number of calendar days from a to b.
// Rounding absorbs DST transitions.
func daysBetween(a, b time.Time) int {
	hours := b.Sub(a).Hours()
	if hours >= 0 {
		return int(hours/24 + 0.5)
	}
	return -int(-hours/24 + 0.5)
}

// DaysSinceLastCheckIn returns whole days elapsed since the last
// check-in, or -1 if the user never checked in.
func DaysSinceLastCheckIn(now time.Time, lastCheckInTs *int64) int {
	if lastCheckInTs == nil {
		return -1
	}
	last := time.Unix(*lastCheckInTs, 0)
	loc := now.Location()
	return daysBetween(dateOf(last, loc), dateOf(now, loc))
}
