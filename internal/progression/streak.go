package progression

import "time"

// CalendarDay truncates t to its date in loc. The result is midnight UTC of
// that civil date so day differences are not skewed by DST transitions.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween is the number of calendar days from a to b in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(CalendarDay(b, loc).Sub(CalendarDay(a, loc)) / (24 * time.Hour))
}

// NextStreak decides the streak after a session finalized at now.
// A second session on the same day leaves the streak unchanged; the next
// calendar day extends it; any longer gap restarts it at 1. A session dated
// before the last workout (an out-of-order backfill) also leaves it unchanged.
func NextStreak(current int, lastWorkout *time.Time, now time.Time, loc *time.Location) int {
	if lastWorkout == nil {
		return 1
	}
	switch diff := DaysBetween(*lastWorkout, now, loc); {
	case diff <= 0:
		return current
	case diff == 1:
		return current + 1
	default:
		return 1
	}
}
