package category_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
)

var budgetID = uuid.MustParse("3e0c7c6a-9b1f-4b7d-8d0e-52a7c1f4e9b2")

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    category.CreateParams
		setupMock func(m *category.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: category.CreateParams{Name: "  Groceries ", MonthlyBudget: 40000},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().CreateCategory(gomock.Any(), &category.Category{
					BudgetID:      budgetID,
					Name:          "Groceries",
					MonthlyBudget: 40000,
				}).Return(nil)
			},
		},
		{
			name:    "EmptyName",
			params:  category.CreateParams{Name: " "},
			wantErr: category.ErrInvalidCategory,
		},
		{
			name:    "NegativeBudget",
			params:  category.CreateParams{Name: "Rent", MonthlyBudget: -1},
			wantErr: category.ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := category.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := category.NewService(repo)
			got, err := svc.Create(context.Background(), budgetID, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Groceries", got.Name)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	svc := category.NewService(repo)

	id := uuid.New()
	existing := &category.Category{ID: id, BudgetID: budgetID, Name: "Fun", MonthlyBudget: 5000}

	repo.EXPECT().GetCategory(gomock.Any(), budgetID, id).Return(existing, nil)
	repo.EXPECT().UpdateCategory(gomock.Any(), existing).Return(nil)

	budget := int64(7500)
	got, err := svc.Update(context.Background(), budgetID, id, category.UpdateParams{MonthlyBudget: &budget})
	require.NoError(t, err)
	assert.Equal(t, "Fun", got.Name)
	assert.Equal(t, int64(7500), got.MonthlyBudget)
}

func TestService_Update_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	svc := category.NewService(repo)

	id := uuid.New()
	repo.EXPECT().GetCategory(gomock.Any(), budgetID, id).Return(nil, category.ErrNotFound)

	_, err := svc.Update(context.Background(), budgetID, id, category.UpdateParams{})
	assert.ErrorIs(t, err, category.ErrNotFound)
}

func TestService_AddSubcategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	svc := category.NewService(repo)

	catID := uuid.New()
	repo.EXPECT().
		CreateSubcategory(gomock.Any(), budgetID, &category.Subcategory{CategoryID: catID, Name: "Coffee"}).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, s *category.Subcategory) error {
			s.ID = uuid.New()
			return nil
		})

	sub, err := svc.AddSubcategory(context.Background(), budgetID, catID, "Coffee")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, sub.ID)

	_, err = svc.AddSubcategory(context.Background(), budgetID, catID, "")
	assert.ErrorIs(t, err, category.ErrInvalidCategory)
}

func TestCategory_Subcategory(t *testing.T) {
	sub := category.Subcategory{ID: uuid.New(), Name: "Fuel"}
	c := &category.Category{Subcategories: []category.Subcategory{sub}}

	got, ok := c.Subcategory(sub.ID)
	require.True(t, ok)
	assert.Equal(t, "Fuel", got.Name)

	_, ok = c.Subcategory(uuid.New())
	assert.False(t, ok)
}

func TestService_CheckOwnership(t *testing.T) {
	catID, subID := uuid.New(), uuid.New()
	owned := &category.Category{
		ID:            catID,
		BudgetID:      budgetID,
		Name:          "Food",
		Subcategories: []category.Subcategory{{ID: subID, CategoryID: catID, Name: "Coffee"}},
	}

	type testCase struct {
		name      string
		sub       uuid.NullUUID
		setupMock func(m *category.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Category",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), budgetID, catID).Return(owned, nil)
			},
		},
		{
			name: "Subcategory",
			sub:  uuid.NullUUID{UUID: subID, Valid: true},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), budgetID, catID).Return(owned, nil)
			},
		},
		{
			name: "OtherBudget",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), budgetID, catID).Return(nil, category.ErrNotFound)
			},
			wantErr: category.ErrInvalidCategory,
		},
		{
			name: "SubcategoryOfAnotherCategory",
			sub:  uuid.NullUUID{UUID: uuid.New(), Valid: true},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), budgetID, catID).Return(owned, nil)
			},
			wantErr: category.ErrInvalidCategory,
		},
		{
			name: "StoreError",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), budgetID, catID).Return(nil, assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := category.NewMockRepository(ctrl)
			tt.setupMock(repo)

			err := category.NewService(repo).CheckOwnership(context.Background(), budgetID, catID, tt.sub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
