// Package calendar provides working-day arithmetic. All duration and
// placement math in the scheduling engine goes through these functions.
package calendar

import "time"

// IsWorkingDay reports whether t falls on a weekday (Monday–Friday).
func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkingDaysBetween returns the inclusive count of weekdays between start
// and end. Returns 0 when end is before start.
func WorkingDaysBetween(start, end time.Time) int {
	start = truncate(start)
	end = truncate(end)
	if end.Before(start) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// AddWorkingDays advances start by n weekday-only increments, skipping
// Saturdays and Sundays. AddWorkingDays(d, 0) is the identity.
func AddWorkingDays(start time.Time, n int) time.Time {
	d := truncate(start)
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if IsWorkingDay(d) {
			n--
		}
	}
	return d
}

// truncate drops the time-of-day component so date comparisons are stable.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
