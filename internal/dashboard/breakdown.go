package dashboard

import (
	"math"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type CategorySpending struct {
	CategoryID uuid.UUID
	Name       string
	Budgeted   int64
	Spent      int64
	Remaining  int64
}

type Breakdown struct {
	Categories    []CategorySpending
	Uncategorized int64
	TotalBudgeted int64
	TotalSpent    int64
}

// BreakdownOf compares spending per category in p with the category budget scaled to
// the length of p. Spending is the sum of non-discarded expenses.
func BreakdownOf(txs []*transaction.Transaction, cats []*category.Category, p period.Period) Breakdown {
	spent := make(map[uuid.UUID]int64, len(cats))

	var b Breakdown

	for _, tx := range txs {
		if tx.IsDiscarded || tx.IsIncome() || !p.Contains(tx.Date) {
			continue
		}

		if !tx.CategoryID.Valid {
			b.Uncategorized -= tx.Amount
			continue
		}

		spent[tx.CategoryID.UUID] -= tx.Amount
	}

	months := p.Months()

	for _, c := range cats {
		budgeted := int64(math.Round(float64(c.MonthlyBudget) * months))
		cs := CategorySpending{
			CategoryID: c.ID,
			Name:       c.Name,
			Budgeted:   budgeted,
			Spent:      spent[c.ID],
			Remaining:  budgeted - spent[c.ID],
		}

		b.Categories = append(b.Categories, cs)
		b.TotalBudgeted += cs.Budgeted
		b.TotalSpent += cs.Spent
	}

	b.TotalSpent += b.Uncategorized

	return b
}
