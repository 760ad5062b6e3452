package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

func TestFormatAmount(t *testing.T) {
	type testCase struct {
		cents int64
		want  string
	}

	tests := []testCase{
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: 123456, want: "1234.56"},
		{cents: -1999, want: "-19.99"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.cents))
		})
	}
}

func testCategories() ([]*category.Category, uuid.UUID, uuid.UUID) {
	catID, subID := uuid.New(), uuid.New()

	cats := []*category.Category{
		{ID: catID, Name: "Food", Subcategories: []category.Subcategory{{ID: subID, CategoryID: catID, Name: "Coffee"}}},
		{ID: uuid.New(), Name: "Rent"},
	}

	return cats, catID, subID
}

func TestClassLabel(t *testing.T) {
	cats, catID, subID := testCategories()

	type testCase struct {
		name string
		c    transaction.Classification
		want string
	}

	tests := []testCase{
		{name: "Uncategorized", want: "-"},
		{name: "Category", c: transaction.Classification{CategoryID: transaction.SomeID(catID)}, want: "Food"},
		{
			name: "Subcategory",
			c:    transaction.Classification{CategoryID: transaction.SomeID(catID), SubcategoryID: transaction.SomeID(subID)},
			want: "Food / Coffee",
		},
		{name: "Discarded", c: transaction.Classification{CategoryID: transaction.SomeID(catID), IsDiscarded: true}, want: "discarded"},
		{name: "UnknownCategory", c: transaction.Classification{CategoryID: transaction.SomeID(uuid.New())}, want: "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classLabel(tt.c, cats))
		})
	}
}

func TestClassOptions(t *testing.T) {
	cats, catID, subID := testCategories()

	opts := classOptions(cats)
	require.Len(t, opts, 4)

	assert.Equal(t, "Uncategorized", opts[0].Key)
	assert.Equal(t, classChoice{}, opts[0].Value)
	assert.Equal(t, "Food / Coffee", opts[2].Key)
	assert.Equal(t, classChoice{CategoryID: transaction.SomeID(catID), SubcategoryID: transaction.SomeID(subID)}, opts[2].Value)
	assert.Equal(t, "Rent", opts[3].Key)

	c := opts[2].Value.classification(true)
	assert.True(t, c.IsDiscarded)
	assert.Equal(t, subID, c.SubcategoryID.UUID)
}

func TestDashboardModel_Keys(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	march := period.Containing(now, period.ModeMonthly)

	type testCase struct {
		name  string
		start period.Period
		key   tea.KeyMsg
		want  period.Period
	}

	tests := []testCase{
		{name: "Next", start: march, key: tea.KeyMsg{Type: tea.KeyRight}, want: march.Next()},
		{name: "Prev", start: march, key: tea.KeyMsg{Type: tea.KeyLeft}, want: march.Prev()},
		{
			name:  "ToggleYearly",
			start: march,
			key:   tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")},
			want:  period.Containing(now, period.ModeYearly),
		},
		{
			name:  "ToggleMonthly",
			start: period.Containing(now, period.ModeYearly),
			key:   tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")},
			want:  period.Containing(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), period.ModeMonthly),
		},
		{
			name:  "Today",
			start: march.Prev().Prev(),
			key:   tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")},
			want:  march,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDashboardModel(CommonModel{}, nil)
			m.now = func() time.Time { return now }
			m.period = tt.start
			m.loading = false

			got, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)

			dm := got.(DashboardModel)
			assert.True(t, dm.period.Equal(tt.want), "got %s", dm.period.Title())
			assert.True(t, dm.loading)
		})
	}
}

func TestDashboardModel_DropsStaleOverview(t *testing.T) {
	m := NewDashboardModel(CommonModel{}, nil)
	current := m.period

	got, _ := m.Update(overviewMsg{period: current.Prev(), err: assert.AnError})
	assert.True(t, got.(DashboardModel).loading)

	got, _ = m.Update(overviewMsg{period: current, err: assert.AnError})
	dm := got.(DashboardModel)
	assert.False(t, dm.loading)
	assert.ErrorIs(t, dm.err, assert.AnError)
}

func TestRangePicker(t *testing.T) {
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	t.Run("Valid", func(t *testing.T) {
		p := NewRangePicker()
		p.startInput.SetValue("2026-01-10")
		p.endInput.SetValue("2026-02-09")

		p, cmd := p.Update(enter)
		require.NotNil(t, cmd)
		assert.NoError(t, p.err)

		msg, ok := cmd().(RangeSelectedMsg)
		require.True(t, ok)
		assert.Equal(t, period.ModeCustom, msg.Period.Mode)
		assert.Equal(t, 31, msg.Period.Days())
	})

	t.Run("Reversed", func(t *testing.T) {
		p := NewRangePicker()
		p.startInput.SetValue("2026-02-09")
		p.endInput.SetValue("2026-01-10")

		p, cmd := p.Update(enter)
		assert.Nil(t, cmd)
		assert.ErrorIs(t, p.err, period.ErrInvalidRange)
	})

	t.Run("Cancel", func(t *testing.T) {
		_, cmd := NewRangePicker().Update(tea.KeyMsg{Type: tea.KeyEsc})
		require.NotNil(t, cmd)
		assert.IsType(t, RangeCanceledMsg{}, cmd())
	})
}

func TestTransactionsModel_ApplyFilter(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	m := NewTransactionsModel(CommonModel{}, nil, nil)
	m.now = func() time.Time { return now }

	m.classFilterIdx = 1
	m.dateFilterIdx = 2
	m.applyFilter()

	assert.True(t, m.filter.Uncategorized)
	assert.False(t, m.filter.Unlinked)
	require.NotNil(t, m.filter.StartDate)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *m.filter.StartDate)
	assert.Equal(t, time.February, m.filter.EndDate.Month())

	m.classFilterIdx = 2
	m.dateFilterIdx = 0
	m.applyFilter()

	assert.False(t, m.filter.Uncategorized)
	assert.True(t, m.filter.Unlinked)
	assert.Nil(t, m.filter.StartDate)
	assert.Nil(t, m.filter.EndDate)
}

func TestImportModel_Conflicts(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m := NewImportModel(CommonModel{}, nil, importer.NewService(), nil)
	m.state = importStateImporting

	got, _ := m.Update(importResultMsg{result: &transaction.ImportResult{
		New: []transaction.CreateParams{{Date: day, Name: "Coffee", Amount: -350}},
		Conflicts: []transaction.Conflict{
			{Incoming: transaction.CreateParams{Date: day, Name: "Rent", Amount: -90000}, Existing: &transaction.Transaction{Name: "Rent"}},
			{Incoming: transaction.CreateParams{Date: day, Name: "Salary", Amount: 250000}, Existing: &transaction.Transaction{Name: "Salary"}},
		},
	}})

	im := got.(ImportModel)
	require.Equal(t, importStateConflicts, im.state)
	assert.Len(t, im.newParams, 1)

	got, _ = im.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	im = got.(ImportModel)
	assert.True(t, im.keep[0])
	assert.True(t, im.keep[1])

	got, _ = im.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	im = got.(ImportModel)
	assert.False(t, im.keep[0])

	got, _ = im.Update(tea.KeyMsg{Type: tea.KeyEsc})
	im = got.(ImportModel)
	assert.Equal(t, importStateBank, im.state)
	assert.Empty(t, im.conflicts)
}

func TestImportModel_ResultWithoutConflicts(t *testing.T) {
	ruleID := uuid.New()

	m := NewImportModel(CommonModel{}, nil, importer.NewService(), nil)

	got, _ := m.Update(importResultMsg{
		result: &transaction.ImportResult{Imported: []*transaction.Transaction{
			{Name: "Coffee", RuleID: uuid.NullUUID{UUID: ruleID, Valid: true}},
			{Name: "Rent"},
		}},
	})

	im := got.(ImportModel)
	assert.Equal(t, importStateResult, im.state)
	assert.NoError(t, im.err)
	assert.Equal(t, "Imported 2 transactions, 1 classified by rules.", im.status)

	got, _ = m.Update(importResultMsg{err: assert.AnError})
	im = got.(ImportModel)
	assert.Equal(t, importStateResult, im.state)
	assert.ErrorIs(t, im.err, assert.AnError)
}
