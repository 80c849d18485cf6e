// Package recurrence computes monthly recurring dates such as statement
// closing days.
package recurrence

import "time"

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func clampDay(day, year int, month time.Month, loc *time.Location) int {
	if day < 1 {
		return 1
	}
	if last := DaysIn(year, month, loc); day > last {
		return last
	}
	return day
}

// NextOccurrence returns the next instant, not before now, that falls on the
// given day of month, clamped to the month's last day. The result keeps now's
// clock and location, so a day equal to today's yields now itself. The result
// is then moved monthsAhead calendar months forward.
func NextOccurrence(day, monthsAhead int, now time.Time) time.Time {
	loc := now.Location()
	year, month := now.Year(), now.Month()

	at := func(y int, m time.Month) time.Time {
		d := clampDay(day, y, m, loc)
		return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), loc)
	}

	next := at(year, month)
	if next.Before(now) {
		// normalise through the 1st so December rolls into January
		first := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
		next = at(first.Year(), first.Month())
	}

	if monthsAhead != 0 {
		next = AddMonths(next, monthsAhead)
	}
	return next
}

// AddMonths moves t by n calendar months, clamping the day to the target
// month's length (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	loc := t.Location()
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, loc)
	d := clampDay(t.Day(), first.Year(), first.Month(), loc)
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// DateOf truncates t to midnight of its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
