package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
)

type periodResponse struct {
	Mode      period.Mode `json:"mode"`
	Begin     time.Time   `json:"begin"`
	End       time.Time   `json:"end"`
	Title     string      `json:"title"`
	Label     string      `json:"label"`
	Days      int         `json:"days"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
}

type summaryResponse struct {
	Title            string    `json:"title"`
	Begin            time.Time `json:"begin"`
	End              time.Time `json:"end"`
	Income           int64     `json:"income"`
	Expenses         int64     `json:"expenses"`
	Balance          int64     `json:"balance"`
	TransactionCount int       `json:"transaction_count"`
}

type categorySpendingResponse struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Budgeted   int64     `json:"budgeted"`
	Spent      int64     `json:"spent"`
	Remaining  int64     `json:"remaining"`
}

type breakdownResponse struct {
	Categories    []categorySpendingResponse `json:"categories"`
	Uncategorized int64                      `json:"uncategorized"`
	TotalBudgeted int64                      `json:"total_budgeted"`
	TotalSpent    int64                      `json:"total_spent"`
}

type streakResponse struct {
	Count int    `json:"count"`
	Unit  string `json:"unit"`
}

type overviewResponse struct {
	Period    periodResponse    `json:"period"`
	Summary   summaryResponse   `json:"summary"`
	Breakdown breakdownResponse `json:"breakdown"`
	Streak    streakResponse    `json:"streak"`
}

type historyResponse struct {
	Page      int               `json:"page"`
	Summaries []summaryResponse `json:"summaries"`
}

func toPeriodResponse(p period.Period) periodResponse {
	return periodResponse{
		Mode:      p.Mode,
		Begin:     p.Begin,
		End:       p.End,
		Title:     p.Title(),
		Label:     p.Label(),
		Days:      p.Days(),
		StartDate: p.Begin.Format(time.DateOnly),
		EndDate:   p.End.Format(time.DateOnly),
	}
}

func toSummaryResponse(s dashboard.Summary) summaryResponse {
	return summaryResponse{
		Title:            s.Title,
		Begin:            s.Begin,
		End:              s.End,
		Income:           s.Income,
		Expenses:         s.Expenses,
		Balance:          s.Balance,
		TransactionCount: s.TransactionCount,
	}
}

func toSummaryList(ss []dashboard.Summary) []summaryResponse {
	resp := make([]summaryResponse, len(ss))
	for i, s := range ss {
		resp[i] = toSummaryResponse(s)
	}

	return resp
}

func toOverviewResponse(o *dashboard.Overview) overviewResponse {
	cats := make([]categorySpendingResponse, len(o.Breakdown.Categories))
	for i, c := range o.Breakdown.Categories {
		cats[i] = categorySpendingResponse(c)
	}

	return overviewResponse{
		Period:  toPeriodResponse(o.Period),
		Summary: toSummaryResponse(o.Summary),
		Breakdown: breakdownResponse{
			Categories:    cats,
			Uncategorized: o.Breakdown.Uncategorized,
			TotalBudgeted: o.Breakdown.TotalBudgeted,
			TotalSpent:    o.Breakdown.TotalSpent,
		},
		Streak: streakResponse(o.Streak),
	}
}
