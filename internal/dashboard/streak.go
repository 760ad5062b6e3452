package dashboard

import "github.com/MrJamesThe3rd/budgeteer/internal/period"

type Streak struct {
	Count int
	Unit  string
}

// StreakUnit is "year" for yearly periods and "month" for everything else.
func StreakUnit(mode period.Mode) string {
	if mode == period.ModeYearly {
		return "year"
	}

	return "month"
}

// StreakCounter counts consecutive completed periods, newest first, whose balance is
// not negative. Summaries may arrive in pages; the result equals a single full feed as
// long as pages are contiguous and newest-to-oldest.
type StreakCounter struct {
	mode  period.Mode
	count int
	done  bool
}

func NewStreakCounter(mode period.Mode) *StreakCounter {
	return &StreakCounter{mode: mode}
}

// Feed consumes the next page and reports whether more pages could extend the streak.
func (c *StreakCounter) Feed(page []Summary) bool {
	for _, s := range page {
		if c.done {
			break
		}

		if s.TransactionCount == 0 || s.Balance < 0 {
			c.done = true
			break
		}

		c.count++
	}

	return !c.done
}

func (c *StreakCounter) Done() bool { return c.done }

func (c *StreakCounter) Streak() Streak {
	return Streak{Count: c.count, Unit: StreakUnit(c.mode)}
}

// ComputeStreak runs a counter over the completed periods, newest first. The current,
// in-progress period must not be part of summaries.
func ComputeStreak(mode period.Mode, summaries []Summary) Streak {
	c := NewStreakCounter(mode)
	c.Feed(summaries)

	return c.Streak()
}

// History returns one page of completed periods before current, newest first.
func History(current period.Period, page, size int) []period.Period {
	if page < 0 || size <= 0 || page > period.MaxSkip/size {
		return nil
	}

	return current.Preceding(page*size, size)
}
