package dashboard

import (
	"time"

	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

// Summary holds the totals of one period, in cents.
type Summary struct {
	Title            string
	Begin            time.Time
	End              time.Time
	Income           int64
	Expenses         int64
	Balance          int64
	TransactionCount int
}

// Summarize totals the non-discarded transactions dated within p.
// Positive amounts are income; zero and negative amounts count as expenses.
func Summarize(txs []*transaction.Transaction, p period.Period) Summary {
	s := Summary{Title: p.Title(), Begin: p.Begin, End: p.End}

	for _, tx := range txs {
		if tx.IsDiscarded || !p.Contains(tx.Date) {
			continue
		}

		s.TransactionCount++

		if tx.IsIncome() {
			s.Income += tx.Amount
		} else {
			s.Expenses -= tx.Amount
		}
	}

	s.Balance = s.Income - s.Expenses

	return s
}

// SummarizeEach summarizes every period from one shared transaction snapshot.
func SummarizeEach(txs []*transaction.Transaction, periods []period.Period) []Summary {
	out := make([]Summary, len(periods))
	for i, p := range periods {
		out[i] = Summarize(txs, p)
	}

	return out
}
