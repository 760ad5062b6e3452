package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	ListRules(ctx context.Context, budgetID uuid.UUID) ([]*Rule, error)
	GetRule(ctx context.Context, budgetID, id uuid.UUID) (*Rule, error)
	DeleteRule(ctx context.Context, budgetID, id uuid.UUID) error
	ReorderRules(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error

	Begin(ctx context.Context, budgetID uuid.UUID) (SweepTx, error)
}

// SweepTx groups the writes of one re-classification pass.
type SweepTx interface {
	CreateRule(ctx context.Context, r *Rule) error
	UpdateRule(ctx context.Context, r *Rule) error
	LinkedTransactions(ctx context.Context, ruleID uuid.UUID) ([]*transaction.Transaction, error)
	SaveClassification(ctx context.Context, tx *transaction.Transaction) error
	Commit() error
	Rollback() error
}

type TransactionLister interface {
	List(ctx context.Context, budgetID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// CategoryChecker confirms that a category, and optionally one of its subcategories,
// belongs to the budget.
type CategoryChecker interface {
	CheckOwnership(ctx context.Context, budgetID, categoryID uuid.UUID, subcategoryID uuid.NullUUID) error
}

type Service struct {
	repo Repository
	txs  TransactionLister
	cats CategoryChecker
}

func NewService(repo Repository, txs TransactionLister, cats CategoryChecker) *Service {
	return &Service{repo: repo, txs: txs, cats: cats}
}

type SweepResult struct {
	Refreshed int
	Unlinked  int
}

func (s *Service) List(ctx context.Context, budgetID uuid.UUID) ([]*Rule, error) {
	return s.repo.ListRules(ctx, budgetID)
}

func (s *Service) Get(ctx context.Context, budgetID, id uuid.UUID) (*Rule, error) {
	return s.repo.GetRule(ctx, budgetID, id)
}

// Create stores a rule at the end of the list and classifies unclassified, unlinked
// transactions the rule list now matches. The rule and the classifications commit
// together.
func (s *Service) Create(ctx context.Context, budgetID uuid.UUID, params RuleParams) (*Rule, int, error) {
	if err := s.validate(ctx, budgetID, params); err != nil {
		return nil, 0, err
	}

	rules, err := s.repo.ListRules(ctx, budgetID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing rules: %w", err)
	}

	txs, err := s.txs.List(ctx, budgetID, transaction.ListFilter{Uncategorized: true, Unlinked: true})
	if err != nil {
		return nil, 0, fmt.Errorf("listing transactions: %w", err)
	}

	r := &Rule{
		BudgetID:       budgetID,
		MatchType:      params.MatchType,
		MatchString:    params.MatchString,
		Classification: params.Classification,
	}

	stx, err := s.repo.Begin(ctx, budgetID)
	if err != nil {
		return nil, 0, fmt.Errorf("begin create: %w", err)
	}
	defer stx.Rollback()

	if err := stx.CreateRule(ctx, r); err != nil {
		return nil, 0, err
	}

	changed := reclassify(txs, append(rules, r))
	if err := saveAll(ctx, stx, changed); err != nil {
		return nil, 0, err
	}

	if err := stx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit create: %w", err)
	}

	return r, len(changed), nil
}

// validate checks the rule shape and that its category belongs to the budget.
func (s *Service) validate(ctx context.Context, budgetID uuid.UUID, params RuleParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if !params.CategoryID.Valid {
		return nil
	}

	err := s.cats.CheckOwnership(ctx, budgetID, params.CategoryID.UUID, params.SubcategoryID)
	if errors.Is(err, category.ErrInvalidCategory) {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}

	return nil
}

// Delete removes a rule. Linked transactions lose the link and keep their classification.
func (s *Service) Delete(ctx context.Context, budgetID, id uuid.UUID) error {
	return s.repo.DeleteRule(ctx, budgetID, id)
}

func (s *Service) Reorder(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: rule %s listed twice", ErrInvalidRule, id)
		}

		seen[id] = struct{}{}
	}

	return s.repo.ReorderRules(ctx, budgetID, ids)
}

// Update replaces a rule definition and re-evaluates every transaction linked to it.
// Transactions that still match get the new classification; the rest only lose the
// link. All writes commit together or not at all.
func (s *Service) Update(ctx context.Context, budgetID, id uuid.UUID, params RuleParams) (*Rule, *SweepResult, error) {
	if err := s.validate(ctx, budgetID, params); err != nil {
		return nil, nil, err
	}

	r, err := s.repo.GetRule(ctx, budgetID, id)
	if err != nil {
		return nil, nil, err
	}

	r.MatchType = params.MatchType
	r.MatchString = params.MatchString
	r.Classification = params.Classification

	stx, err := s.repo.Begin(ctx, budgetID)
	if err != nil {
		return nil, nil, fmt.Errorf("begin sweep: %w", err)
	}
	defer stx.Rollback()

	if err := stx.UpdateRule(ctx, r); err != nil {
		return nil, nil, fmt.Errorf("updating rule: %w", err)
	}

	linked, err := stx.LinkedTransactions(ctx, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading linked transactions: %w", err)
	}

	result := &SweepResult{}

	for _, tx := range linked {
		if r.Matches(tx.Name) {
			tx.ApplyRule(r.ID, r.Classification)
			result.Refreshed++
		} else {
			tx.Unlink()
			result.Unlinked++
		}
	}

	if err := saveAll(ctx, stx, linked); err != nil {
		return nil, nil, err
	}

	if err := stx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit sweep: %w", err)
	}

	return r, result, nil
}

// ClassifyParams assigns rule classifications to freshly parsed rows before they are stored.
func (s *Service) ClassifyParams(ctx context.Context, budgetID uuid.UUID, params []transaction.CreateParams) error {
	rules, err := s.repo.ListRules(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("listing rules: %w", err)
	}

	for i := range params {
		r, ok := Match(params[i].Name, rules)
		if !ok {
			continue
		}

		params[i].Classification = r.Classification
		params[i].RuleID = transaction.SomeID(r.ID)
	}

	return nil
}

// ApplyAll runs the rule list over the filtered transactions and stores the ones whose
// classification or link changed. Unmatched transactions are not touched.
func (s *Service) ApplyAll(ctx context.Context, budgetID uuid.UUID, filter transaction.ListFilter) (int, error) {
	rules, err := s.repo.ListRules(ctx, budgetID)
	if err != nil {
		return 0, fmt.Errorf("listing rules: %w", err)
	}

	if len(rules) == 0 {
		return 0, nil
	}

	txs, err := s.txs.List(ctx, budgetID, filter)
	if err != nil {
		return 0, fmt.Errorf("listing transactions: %w", err)
	}

	changed := reclassify(txs, rules)
	if len(changed) == 0 {
		return 0, nil
	}

	stx, err := s.repo.Begin(ctx, budgetID)
	if err != nil {
		return 0, fmt.Errorf("begin apply: %w", err)
	}
	defer stx.Rollback()

	if err := saveAll(ctx, stx, changed); err != nil {
		return 0, err
	}

	if err := stx.Commit(); err != nil {
		return 0, fmt.Errorf("commit apply: %w", err)
	}

	return len(changed), nil
}

// reclassify applies rules to txs and returns the ones whose classification or link changed.
func reclassify(txs []*transaction.Transaction, rules []*Rule) []*transaction.Transaction {
	var changed []*transaction.Transaction

	for _, tx := range txs {
		before, link := tx.Classification, tx.RuleID
		if !Apply(tx, rules) {
			continue
		}

		if tx.Classification == before && tx.RuleID == link {
			continue
		}

		changed = append(changed, tx)
	}

	return changed
}

// saveAll stops at the first failed write; the caller rolls the whole sweep back.
func saveAll(ctx context.Context, stx SweepTx, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := stx.SaveClassification(ctx, tx); err != nil {
			return fmt.Errorf("%w: transaction %s: %w", ErrSweepFailed, tx.ID, err)
		}
	}

	return nil
}

// Test lists stored transactions a candidate rule would match, ignoring rule order.
func (s *Service) Test(ctx context.Context, budgetID uuid.UUID, matchType MatchType, matchString string) ([]*transaction.Transaction, error) {
	params := RuleParams{MatchType: matchType, MatchString: matchString}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	candidate := &Rule{MatchType: matchType, MatchString: matchString}

	txs, err := s.txs.List(ctx, budgetID, transaction.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	var matched []*transaction.Transaction

	for _, tx := range txs {
		if candidate.Matches(tx.Name) {
			matched = append(matched, tx)
		}
	}

	return matched, nil
}
