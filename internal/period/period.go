package period

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Mode selects how a reporting period is derived.
type Mode string

const (
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
	ModeCustom  Mode = "custom"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("begin date is after end date")
	ErrInvalidMode  = errors.New("invalid period mode")
)

const day = 24 * time.Hour

// ParseMode accepts the lowercase mode names used on the wire.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMonthly, ModeYearly, ModeCustom:
		return Mode(s), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Period is an inclusive interval [Begin, End] tagged with the mode it was built from.
type Period struct {
	Begin time.Time
	End   time.Time
	Mode  Mode
}

// Input is the raw request shape a period is reconstructed from.
// Year/Month are used by monthly and yearly modes, StartDate/EndDate (YYYY-MM-DD) by custom.
type Input struct {
	Mode      Mode
	Year      int
	Month     int
	StartDate string
	EndDate   string
}

// New builds a Period from its request input. Month and year numbers are not range
// checked; out-of-range months normalize the way time.Date does.
func New(in Input) (Period, error) {
	switch in.Mode {
	case ModeMonthly:
		return Period{Begin: StartOfMonth(in.Year, in.Month), End: EndOfMonth(in.Year, in.Month), Mode: in.Mode}, nil
	case ModeYearly:
		return Period{Begin: StartOfYear(in.Year), End: EndOfYear(in.Year), Mode: in.Mode}, nil
	case ModeCustom:
		begin, err := parseDate(in.StartDate)
		if err != nil {
			return Period{}, err
		}

		end, err := parseDate(in.EndDate)
		if err != nil {
			return Period{}, err
		}

		if begin.After(end) {
			return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, in.StartDate, in.EndDate)
		}

		return Period{Begin: begin, End: endOfDay(end), Mode: in.Mode}, nil
	}

	return Period{}, fmt.Errorf("%w: %q", ErrInvalidMode, in.Mode)
}

// Containing returns the monthly or yearly period that contains t.
// For custom mode it returns the single day containing t.
func Containing(t time.Time, mode Mode) Period {
	t = t.UTC()

	switch mode {
	case ModeMonthly:
		return Period{Begin: StartOfMonth(t.Year(), int(t.Month())), End: EndOfMonth(t.Year(), int(t.Month())), Mode: mode}
	case ModeYearly:
		return Period{Begin: StartOfYear(t.Year()), End: EndOfYear(t.Year()), Mode: mode}
	}

	begin := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return Period{Begin: begin, End: endOfDay(begin), Mode: ModeCustom}
}

func (p Period) Title() string { return Title(p.Begin, p.End, p.Mode) }
func (p Period) Label() string { return Label(p.Mode) }
func (p Period) Days() int { return CountDays(p.Begin, p.End) }
func (p Period) Months() float64 { return NumberOfMonths(p.Begin, p.End, p.Mode) }
func (p Period) IsZero() bool { return p.Begin.IsZero() && p.End.IsZero() }
func (p Period) Equal(o Period) bool {
	return p.Mode == o.Mode && p.Begin.Equal(o.Begin) && p.End.Equal(o.End)
}

// Contains reports whether t falls inside the inclusive interval.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Begin) && !t.After(p.End)
}

// Next returns the period one unit later.
func (p Period) Next() Period {
	begin, end := ShiftForward(p.Begin, p.End, p.Mode)
	return Period{Begin: begin, End: end, Mode: p.Mode}
}

// Prev returns the period one unit earlier.
func (p Period) Prev() Period {
	begin, end := ShiftBackward(p.Begin, p.End, p.Mode)
	return Period{Begin: begin, End: end, Mode: p.Mode}
}

// MaxSkip bounds how many periods Preceding may skip. Larger requests return nothing.
const MaxSkip = 100_000

// Shift moves the period n units in one step; negative n moves it back.
func (p Period) Shift(n int) Period {
	switch p.Mode {
	case ModeMonthly:
		return Period{Begin: addMonths(p.Begin, n), End: addMonths(p.End, n), Mode: p.Mode}
	case ModeYearly:
		return Period{Begin: addMonths(p.Begin, 12*n), End: addMonths(p.End, 12*n), Mode: p.Mode}
	}

	days := p.Days() * n

	return Period{Begin: p.Begin.AddDate(0, 0, days), End: p.End.AddDate(0, 0, days), Mode: p.Mode}
}

// Preceding returns n consecutive periods before p, newest first, after skipping
// the first skip of them.
func (p Period) Preceding(skip, n int) []Period {
	if n <= 0 || skip < 0 || skip > MaxSkip || n > MaxSkip {
		return nil
	}

	cur := p.Shift(-skip)

	out := make([]Period, 0, n)
	for range n {
		cur = cur.Prev()
		out = append(out, cur)
	}

	return out
}

// StartOfMonth returns 00:00:00.000 UTC on the first day of the month (1-12).
func StartOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns 23:59:59.999 UTC on the last day of the month.
func EndOfMonth(year, month int) time.Time {
	return StartOfMonth(year, month+1).Add(-time.Millisecond)
}

func StartOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func EndOfYear(year int) time.Time {
	return StartOfYear(year + 1).Add(-time.Millisecond)
}

// Title renders "January 2024", "2024" or "2024-01-05 - 2024-01-14".
func Title(begin, end time.Time, mode Mode) string {
	switch mode {
	case ModeMonthly:
		return fmt.Sprintf("%s %d", begin.Month(), begin.Year())
	case ModeYearly:
		return strconv.Itoa(begin.Year())
	}

	return begin.Format(time.DateOnly) + " - " + end.Format(time.DateOnly)
}

// Label is the noun the UI uses for one unit of the mode.
func Label(mode Mode) string {
	switch mode {
	case ModeMonthly:
		return "Month"
	case ModeYearly:
		return "Year"
	}

	return "Period"
}

// CountDays is the inclusive day count: floor((end-begin)/24h) + 1.
func CountDays(begin, end time.Time) int {
	return int(end.Sub(begin)/day) + 1
}

// NumberOfMonths is 1 for monthly, 12 for yearly and days/365*12 for custom periods.
// The custom value is a continuous approximation, not a calendar month count.
func NumberOfMonths(begin, end time.Time, mode Mode) float64 {
	switch mode {
	case ModeMonthly:
		return 1
	case ModeYearly:
		return 12
	}

	return float64(CountDays(begin, end)) / 365 * 12
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return t, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
}
