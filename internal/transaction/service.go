package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, budgetID, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	UpdateClassification(ctx context.Context, budgetID, id uuid.UUID, c Classification) error

	ListTransactions(ctx context.Context, budgetID uuid.UUID, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, budgetID, id uuid.UUID) error

	BeginImport(ctx context.Context, budgetID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

// CategoryChecker confirms that a category, and optionally one of its subcategories,
// belongs to the budget.
type CategoryChecker interface {
	CheckOwnership(ctx context.Context, budgetID, categoryID uuid.UUID, subcategoryID uuid.NullUUID) error
}

type Service struct {
	repo Repository
	cats CategoryChecker
}

func NewService(repo Repository, cats CategoryChecker) *Service {
	return &Service{repo: repo, cats: cats}
}

type CreateParams struct {
	Date   time.Time
	Name   string
	Amount int64

	Classification
	RuleID uuid.NullUUID
}

type ListFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	CategoryID    *uuid.UUID
	RuleID        *uuid.UUID
	Uncategorized bool
	Unlinked      bool
	Search        string
}

func (s *Service) Create(ctx context.Context, budgetID uuid.UUID, params CreateParams) (*Transaction, error) {
	if err := s.CheckClassification(ctx, budgetID, params.Classification); err != nil {
		return nil, err
	}

	tx := paramsToTransaction(budgetID, params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, budgetID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, budgetID, id)
}

func (s *Service) List(ctx context.Context, budgetID uuid.UUID, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, budgetID, filter)
}

func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	return s.repo.UpdateTransaction(ctx, tx)
}

// Classify sets a manual classification. The store drops any rule link, since the
// classification no longer comes from a rule.
func (s *Service) Classify(ctx context.Context, budgetID, id uuid.UUID, c Classification) error {
	if err := s.CheckClassification(ctx, budgetID, c); err != nil {
		return err
	}

	return s.repo.UpdateClassification(ctx, budgetID, id, c)
}

// CheckClassification rejects a subcategory without a category and categories or
// subcategories that belong to another budget.
func (s *Service) CheckClassification(ctx context.Context, budgetID uuid.UUID, c Classification) error {
	if !c.CategoryID.Valid {
		if c.SubcategoryID.Valid {
			return fmt.Errorf("%w: subcategory requires a category", ErrInvalidClassification)
		}

		return nil
	}

	err := s.cats.CheckOwnership(ctx, budgetID, c.CategoryID.UUID, c.SubcategoryID)
	if errors.Is(err, category.ErrInvalidCategory) {
		return fmt.Errorf("%w: %w", ErrInvalidClassification, err)
	}

	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}

	return nil
}

func (s *Service) checkAll(ctx context.Context, budgetID uuid.UUID, params []CreateParams) error {
	seen := make(map[Classification]struct{})

	for _, p := range params {
		c := Classification{CategoryID: p.CategoryID, SubcategoryID: p.SubcategoryID}
		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}

		if err := s.CheckClassification(ctx, budgetID, c); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, budgetID, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, budgetID, id)
}

// Duplicates lists groups of likely duplicate transactions in the filtered range.
func (s *Service) Duplicates(ctx context.Context, budgetID uuid.UUID, filter ListFilter, tolerance time.Duration) ([][]*Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, budgetID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return FindDuplicates(txs, tolerance), nil
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// ImportBatch stores parsed rows unless some already exist, in which case nothing is
// written and the split between new rows and conflicts is returned. Classifications
// are expected to come from the budget's own rules.
func (s *Service) ImportBatch(ctx context.Context, budgetID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, budgetID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[keyOf(d.Date, d.Amount, d.Name)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[keyOf(p.Date, p.Amount, p.Name)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	txs := paramsToTransactions(budgetID, newParams)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: txs}, nil
}

// CreateBatch stores params without duplicate checks, used once conflicts are confirmed.
func (s *Service) CreateBatch(ctx context.Context, budgetID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if err := s.checkAll(ctx, budgetID, params); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, budgetID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	txs := paramsToTransactions(budgetID, params)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}

type dupKey struct {
	Date   string
	Amount int64
	Name   string
}

func keyOf(date time.Time, amount int64, name string) dupKey {
	return dupKey{Date: date.UTC().Format(time.DateOnly), Amount: amount, Name: name}
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	return minDate, maxDate
}

func paramsToTransaction(budgetID uuid.UUID, p CreateParams) *Transaction {
	return &Transaction{
		BudgetID:       budgetID,
		Date:           p.Date,
		Name:           p.Name,
		Amount:         p.Amount,
		Classification: p.Classification,
		RuleID:         p.RuleID,
	}
}

func paramsToTransactions(budgetID uuid.UUID, params []CreateParams) []*Transaction {
	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = paramsToTransaction(budgetID, p)
	}

	return txs
}
