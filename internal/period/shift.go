package period

import "time"

// ShiftForward moves the interval one unit later: a calendar month, a calendar year,
// or the custom window's own length in days.
func ShiftForward(begin, end time.Time, mode Mode) (time.Time, time.Time) {
	return shift(begin, end, mode, 1)
}

// ShiftBackward moves the interval one unit earlier.
func ShiftBackward(begin, end time.Time, mode Mode) (time.Time, time.Time) {
	return shift(begin, end, mode, -1)
}

func shift(begin, end time.Time, mode Mode, dir int) (time.Time, time.Time) {
	switch mode {
	case ModeMonthly:
		return addMonths(begin, dir), addMonths(end, dir)
	case ModeYearly:
		return addMonths(begin, 12*dir), addMonths(end, 12*dir)
	}

	days := CountDays(begin, end) * dir

	return begin.AddDate(0, 0, days), end.AddDate(0, 0, days)
}

// addMonths moves t by n calendar months. The day is clamped to the length of the
// target month (Jan 31 + 1 = Feb 28/29), and the last instant of a month maps to the
// last instant of the target month so whole-month intervals stay whole.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	if t.Equal(lastInstantOfMonth(y, m, loc)) {
		return lastInstantOfMonth(y, m+time.Month(n), loc)
	}

	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}

	return first.AddDate(0, 0, d-1)
}

func lastInstantOfMonth(y int, m time.Month, loc *time.Location) time.Time {
	return time.Date(y, m+1, 1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
