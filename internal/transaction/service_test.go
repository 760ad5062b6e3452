package transaction_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

var budgetID = uuid.MustParse("7b0e1d52-3c55-4a61-9a53-2f6f2c1f0a11")

func TestService_Create(t *testing.T) {
	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: transaction.CreateParams{
					Amount: -1000,
					Name:   "Test Transaction",
					Date:   time.Date(2023, 10, 27, 0, 0, 0, 0, time.UTC),
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						if tx.BudgetID != budgetID {
							return errors.New("wrong budget")
						}

						tx.ID = uuid.New()
						tx.CreatedAt = time.Now()

						return nil
					})
			},
			wantErr: false,
		},
		{
			name: "RepoError",
			args: args{
				params: transaction.CreateParams{
					Amount: 500,
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo, nil)
			got, err := svc.Create(context.Background(), budgetID, tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.False(t, got.CategoryID.Valid)
		})
	}
}

func TestService_List(t *testing.T) {
	type args struct {
		filter transaction.ListFilter
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantLen   int
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{filter: transaction.ListFilter{}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), budgetID, transaction.ListFilter{}).
					Return([]*transaction.Transaction{
						{ID: uuid.New()},
						{ID: uuid.New()},
					}, nil)
			},
			wantLen: 2,
			wantErr: false,
		},
		{
			name: "Error",
			args: args{filter: transaction.ListFilter{Uncategorized: true}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), budgetID, transaction.ListFilter{Uncategorized: true}).
					Return(nil, errors.New("list error"))
			},
			wantLen: 0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo, nil)
			got, err := svc.List(context.Background(), budgetID, tt.args.filter)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_Classify(t *testing.T) {
	catID, subID := uuid.New(), uuid.New()

	type testCase struct {
		name      string
		c         transaction.Classification
		setupMock func(repo *transaction.MockRepository, cats *transaction.MockCategoryChecker)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			c:    transaction.Classification{CategoryID: transaction.SomeID(catID), SubcategoryID: transaction.SomeID(subID)},
			setupMock: func(repo *transaction.MockRepository, cats *transaction.MockCategoryChecker) {
				cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, catID, transaction.SomeID(subID)).Return(nil)
				repo.EXPECT().UpdateClassification(gomock.Any(), budgetID, gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "Uncategorized",
			c:    transaction.Classification{IsDiscarded: true},
			setupMock: func(repo *transaction.MockRepository, _ *transaction.MockCategoryChecker) {
				repo.EXPECT().UpdateClassification(gomock.Any(), budgetID, gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:    "SubcategoryWithoutCategory",
			c:       transaction.Classification{SubcategoryID: transaction.SomeID(subID)},
			wantErr: transaction.ErrInvalidClassification,
		},
		{
			name: "CategoryOfAnotherBudget",
			c:    transaction.Classification{CategoryID: transaction.SomeID(catID)},
			setupMock: func(_ *transaction.MockRepository, cats *transaction.MockCategoryChecker) {
				cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, catID, uuid.NullUUID{}).
					Return(fmt.Errorf("%w: not in budget", category.ErrInvalidCategory))
			},
			wantErr: transaction.ErrInvalidClassification,
		},
		{
			name: "CheckerError",
			c:    transaction.Classification{CategoryID: transaction.SomeID(catID)},
			setupMock: func(_ *transaction.MockRepository, cats *transaction.MockCategoryChecker) {
				cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, catID, uuid.NullUUID{}).Return(assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			cats := transaction.NewMockCategoryChecker(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, cats)
			}

			err := transaction.NewService(repo, cats).Classify(context.Background(), budgetID, uuid.New(), tt.c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_CreateBatch_ForeignCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	cats := transaction.NewMockCategoryChecker(ctrl)
	svc := transaction.NewService(repo, cats)

	own, foreign := uuid.New(), uuid.New()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Amount: -1000, Name: "COFFEE", Date: date, Classification: transaction.Classification{CategoryID: transaction.SomeID(own)}},
		{Amount: -1200, Name: "COFFEE", Date: date, Classification: transaction.Classification{CategoryID: transaction.SomeID(own)}},
		{Amount: -9000, Name: "RENT", Date: date, Classification: transaction.Classification{CategoryID: transaction.SomeID(foreign)}},
	}

	cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, own, uuid.NullUUID{}).Return(nil).Times(1)
	cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, foreign, uuid.NullUUID{}).Return(category.ErrInvalidCategory)

	_, err := svc.CreateBatch(context.Background(), budgetID, params)
	assert.ErrorIs(t, err, transaction.ErrInvalidClassification)
}

func TestService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, nil)

	id := uuid.New()
	repo.EXPECT().GetTransaction(gomock.Any(), budgetID, id).Return(nil, transaction.ErrNotFound)

	_, err := svc.Get(context.Background(), budgetID, id)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo, nil)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Amount: -1000, Name: "COFFEE SHOP", Date: date},
	}

	repo.EXPECT().BeginImport(gomock.Any(), budgetID, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), budgetID, params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Equal(t, budgetID, result.Imported[0].BudgetID)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo, nil)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Amount: -1000, Name: "COFFEE SHOP", Date: date},
		{Amount: -2000, Name: "LUNCH PLACE", Date: date},
	}

	existing := &transaction.Transaction{
		ID:     uuid.New(),
		Amount: -1000,
		Name:   "COFFEE SHOP",
		Date:   date,
	}

	repo.EXPECT().BeginImport(gomock.Any(), budgetID, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), budgetID, params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.New, 1)
	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_ConflictAcrossZones(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo, nil)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{{Amount: -1000, Name: "COFFEE SHOP", Date: date}}

	stored := &transaction.Transaction{
		ID:     uuid.New(),
		Amount: -1000,
		Name:   "COFFEE SHOP",
		Date:   date.In(time.FixedZone("EST", -5*3600)),
	}

	repo.EXPECT().BeginImport(gomock.Any(), budgetID, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*transaction.Transaction{stored}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), budgetID, params)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Same(t, stored, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, nil)

	result, err := svc.ImportBatch(context.Background(), budgetID, []transaction.CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_CreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo, nil)

	early := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Amount: -1000, Name: "COFFEE SHOP", Date: late},
		{Amount: 250000, Name: "SALARY", Date: early},
	}

	repo.EXPECT().BeginImport(gomock.Any(), budgetID, early, late).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	txs, err := svc.CreateBatch(context.Background(), budgetID, params)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(-1000), txs[0].Amount)
	assert.False(t, txs[0].IsIncome())
	assert.True(t, txs[1].IsIncome())
}

func TestService_Duplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, nil)

	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.EXPECT().ListTransactions(gomock.Any(), budgetID, transaction.ListFilter{}).Return([]*transaction.Transaction{
		{Name: "Gym", Amount: -3000, Date: day},
		{Name: "Gym", Amount: -3000, Date: day.Add(2 * time.Hour)},
		{Name: "Gym", Amount: -3000, Date: day.AddDate(0, 1, 0)},
	}, nil)

	groups, err := svc.Duplicates(context.Background(), budgetID, transaction.ListFilter{}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
}

func TestFindDuplicates_StableOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	txs := []*transaction.Transaction{
		{Name: "Gym", Amount: -3000, Date: base},
		{Name: "Gym", Amount: -1500, Date: base},
		{Name: "Gym", Amount: -3000, Date: base.Add(time.Hour)},
		{Name: "Gym", Amount: -1500, Date: base.Add(time.Hour)},
		{Name: "Gym", Amount: -4500, Date: base},
		{Name: "Gym", Amount: -4500, Date: base.Add(time.Hour)},
	}

	for range 20 {
		groups := transaction.FindDuplicates(txs, time.Hour)
		require.Len(t, groups, 3)

		assert.Equal(t, int64(-4500), groups[0][0].Amount)
		assert.Equal(t, int64(-3000), groups[1][0].Amount)
		assert.Equal(t, int64(-1500), groups[2][0].Amount)
	}
}

func TestFindDuplicates(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name       string
		txs        []*transaction.Transaction
		tolerance  time.Duration
		wantGroups []int
	}

	tests := []testCase{
		{
			name: "SameNameAmountWithinTolerance",
			txs: []*transaction.Transaction{
				{Name: "Netflix", Amount: -1299, Date: base},
				{Name: "Netflix", Amount: -1299, Date: base.Add(12 * time.Hour)},
			},
			tolerance:  24 * time.Hour,
			wantGroups: []int{2},
		},
		{
			name: "DifferentAmount",
			txs: []*transaction.Transaction{
				{Name: "Netflix", Amount: -1299, Date: base},
				{Name: "Netflix", Amount: -1599, Date: base},
			},
			tolerance: 24 * time.Hour,
		},
		{
			name: "OutsideTolerance",
			txs: []*transaction.Transaction{
				{Name: "Rent", Amount: -90000, Date: base},
				{Name: "Rent", Amount: -90000, Date: base.AddDate(0, 0, 3)},
			},
			tolerance: 24 * time.Hour,
		},
		{
			name: "ChainedAndOrdered",
			txs: []*transaction.Transaction{
				{Name: "Taxi", Amount: -800, Date: base.AddDate(0, 0, 5)},
				{Name: "Coffee", Amount: -150, Date: base.Add(20 * time.Hour)},
				{Name: "Coffee", Amount: -150, Date: base},
				{Name: "Coffee", Amount: -150, Date: base.Add(40 * time.Hour)},
				{Name: "Taxi", Amount: -800, Date: base.AddDate(0, 0, 5)},
			},
			tolerance:  24 * time.Hour,
			wantGroups: []int{3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := transaction.FindDuplicates(tt.txs, tt.tolerance)

			sizes := make([]int, 0, len(groups))
			for _, g := range groups {
				sizes = append(sizes, len(g))
			}

			if len(tt.wantGroups) == 0 {
				assert.Empty(t, groups)
				return
			}

			assert.Equal(t, tt.wantGroups, sizes)
		})
	}
}
