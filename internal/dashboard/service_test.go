package dashboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

var budgetID = uuid.MustParse("a6c5d1e2-8f3b-4c47-9e0a-1b2c3d4e5f60")

// serveRange answers List calls from a fixed dataset, honoring the date filter.
func serveRange(all []*transaction.Transaction) func(context.Context, uuid.UUID, transaction.ListFilter) ([]*transaction.Transaction, error) {
	return func(_ context.Context, _ uuid.UUID, f transaction.ListFilter) ([]*transaction.Transaction, error) {
		var out []*transaction.Transaction

		for _, t := range all {
			if f.StartDate != nil && t.Date.Before(*f.StartDate) {
				continue
			}

			if f.EndDate != nil && t.Date.After(*f.EndDate) {
				continue
			}

			out = append(out, t)
		}

		return out, nil
	}
}

func TestService_Overview(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txs := dashboard.NewMockTransactionLister(ctrl)
	cats := dashboard.NewMockCategoryLister(ctrl)

	food := &category.Category{ID: uuid.New(), Name: "Food", MonthlyBudget: 20000}
	lunch := tx(day(2024, 3, 4), -1500)
	lunch.CategoryID = transaction.SomeID(food.ID)

	data := []*transaction.Transaction{
		tx(day(2024, 3, 1), 10000),
		lunch,
		tx(day(2024, 2, 5), 100),
		tx(day(2024, 2, 6), -50),
		tx(day(2024, 1, 5), 20),
		tx(day(2023, 12, 5), -10),
		tx(day(2023, 11, 5), 999),
	}

	txs.EXPECT().List(gomock.Any(), budgetID, gomock.Any()).DoAndReturn(serveRange(data)).AnyTimes()
	cats.EXPECT().List(gomock.Any(), budgetID).Return([]*category.Category{food}, nil)

	svc := dashboard.NewService(txs, cats, dashboard.Options{PageSize: 2})
	current := period.Containing(day(2024, 3, 10), period.ModeMonthly)

	got, err := svc.Overview(context.Background(), budgetID, current)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), got.Summary.Income)
	assert.Equal(t, int64(1500), got.Summary.Expenses)
	assert.Equal(t, dashboard.Streak{Count: 2, Unit: "month"}, got.Streak)
	require.Len(t, got.Breakdown.Categories, 1)
	assert.Equal(t, int64(1500), got.Breakdown.Categories[0].Spent)
}

func TestService_Streak_SpansPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txs := dashboard.NewMockTransactionLister(ctrl)

	var data []*transaction.Transaction
	for m := 1; m <= 5; m++ {
		data = append(data, tx(day(2024, m, 3), 100))
	}

	txs.EXPECT().List(gomock.Any(), budgetID, gomock.Any()).DoAndReturn(serveRange(data)).Times(3)

	svc := dashboard.NewService(txs, nil, dashboard.Options{PageSize: 2, MaxStreakPages: 10})
	current := period.Containing(day(2024, 6, 1), period.ModeMonthly)

	streak, err := svc.Streak(context.Background(), budgetID, current)
	require.NoError(t, err)
	assert.Equal(t, 5, streak.Count)
}

func TestService_Streak_PageLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txs := dashboard.NewMockTransactionLister(ctrl)

	var data []*transaction.Transaction
	for m := 1; m <= 12; m++ {
		data = append(data, tx(day(2023, m, 3), 100))
	}

	txs.EXPECT().List(gomock.Any(), budgetID, gomock.Any()).DoAndReturn(serveRange(data)).Times(2)

	svc := dashboard.NewService(txs, nil, dashboard.Options{PageSize: 3, MaxStreakPages: 2})
	current := period.Containing(day(2024, 1, 1), period.ModeMonthly)

	streak, err := svc.Streak(context.Background(), budgetID, current)
	require.NoError(t, err)
	assert.Equal(t, 6, streak.Count)
}

func TestService_HistoryPage_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txs := dashboard.NewMockTransactionLister(ctrl)
	txs.EXPECT().List(gomock.Any(), budgetID, gomock.Any()).Return(nil, errors.New("db down"))

	svc := dashboard.NewService(txs, nil, dashboard.Options{})

	_, err := svc.HistoryPage(context.Background(), budgetID, period.Containing(day(2024, 1, 1), period.ModeYearly), 0)
	assert.Error(t, err)
}

func TestService_HistoryPage_OutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := dashboard.NewService(dashboard.NewMockTransactionLister(ctrl), nil, dashboard.Options{PageSize: 6, MaxStreakPages: 20})
	current := period.Containing(day(2024, 1, 1), period.ModeMonthly)

	_, err := svc.HistoryPage(context.Background(), budgetID, current, 20)
	assert.ErrorIs(t, err, dashboard.ErrPageOutOfRange)

	_, err = svc.HistoryPage(context.Background(), budgetID, current, 1_000_000_000)
	assert.ErrorIs(t, err, dashboard.ErrPageOutOfRange)
}
