package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectRuleColumns = `
	r.id, r.budget_id, r.match_type, r.match_string, r.category_id, r.subcategory_id,
	r.is_discarded, r.position, r.created_at, r.updated_at
`

func scanRule(s scanner) (*matching.Rule, error) {
	var r matching.Rule

	var matchType string

	if err := s.Scan(
		&r.ID, &r.BudgetID, &matchType, &r.MatchString, &r.CategoryID, &r.SubcategoryID,
		&r.IsDiscarded, &r.Position, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.MatchType = matching.MatchType(matchType)

	return &r, nil
}

func (s *Store) ListRules(ctx context.Context, budgetID uuid.UUID) ([]*matching.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM rules r
		WHERE r.budget_id = $1
		ORDER BY r.position ASC, r.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []*matching.Rule

	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return rules, nil
}

func (s *Store) GetRule(ctx context.Context, budgetID, id uuid.UUID) (*matching.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM rules r
		WHERE r.budget_id = $1 AND r.id = $2`

	r, err := scanRule(s.db.QueryRowContext(ctx, query, budgetID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, matching.ErrNotFound
		}

		return nil, fmt.Errorf("getting rule: %w", err)
	}

	return r, nil
}

// DeleteRule removes the rule; the foreign key clears transactions.rule_id.
func (s *Store) DeleteRule(ctx context.Context, budgetID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE budget_id = $1 AND id = $2`, budgetID, id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return matching.ErrNotFound
	}

	return nil
}

// ReorderRules assigns positions following ids. Every rule of the budget must be listed.
func (s *Store) ReorderRules(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var count int
	if err := dbTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules WHERE budget_id = $1`, budgetID).Scan(&count); err != nil {
		return fmt.Errorf("counting rules: %w", err)
	}

	if count != len(ids) {
		return fmt.Errorf("%w: expected %d rule ids, got %d", matching.ErrInvalidRule, count, len(ids))
	}

	for pos, id := range ids {
		res, err := dbTx.ExecContext(ctx,
			`UPDATE rules SET position = $1, updated_at = NOW() WHERE budget_id = $2 AND id = $3`,
			pos, budgetID, id,
		)
		if err != nil {
			return fmt.Errorf("updating position: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", matching.ErrNotFound, id)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

type sweepTx struct {
	tx       *sql.Tx
	budgetID uuid.UUID
}

func (s *Store) Begin(ctx context.Context, budgetID uuid.UUID) (matching.SweepTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning sweep tx: %w", err)
	}

	return &sweepTx{tx: dbTx, budgetID: budgetID}, nil
}

func (st *sweepTx) Commit() error   { return st.tx.Commit() }
func (st *sweepTx) Rollback() error { return st.tx.Rollback() }

// CreateRule appends the rule after the current last position.
func (st *sweepTx) CreateRule(ctx context.Context, r *matching.Rule) error {
	query := `
		INSERT INTO rules (budget_id, match_type, match_string, category_id, subcategory_id, is_discarded, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM rules WHERE budget_id = $1), NOW())
		RETURNING id, position, created_at
	`

	err := st.tx.QueryRowContext(ctx, query,
		st.budgetID,
		r.MatchType,
		r.MatchString,
		r.CategoryID,
		r.SubcategoryID,
		r.IsDiscarded,
	).Scan(&r.ID, &r.Position, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}

func (st *sweepTx) UpdateRule(ctx context.Context, r *matching.Rule) error {
	query := `
		UPDATE rules
		SET match_type = $1, match_string = $2, category_id = $3, subcategory_id = $4,
			is_discarded = $5, updated_at = NOW()
		WHERE budget_id = $6 AND id = $7
		RETURNING updated_at
	`

	err := st.tx.QueryRowContext(ctx, query,
		r.MatchType,
		r.MatchString,
		r.CategoryID,
		r.SubcategoryID,
		r.IsDiscarded,
		st.budgetID,
		r.ID,
	).Scan(&r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return matching.ErrNotFound
		}

		return fmt.Errorf("updating rule: %w", err)
	}

	return nil
}

func (st *sweepTx) LinkedTransactions(ctx context.Context, ruleID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `
		SELECT id, name, category_id, subcategory_id, is_discarded, rule_id
		FROM transactions
		WHERE budget_id = $1 AND rule_id = $2 AND deleted_at IS NULL
		FOR UPDATE
	`

	rows, err := st.tx.QueryContext(ctx, query, st.budgetID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("listing linked transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx := transaction.Transaction{BudgetID: st.budgetID}
		if err := rows.Scan(&tx.ID, &tx.Name, &tx.CategoryID, &tx.SubcategoryID, &tx.IsDiscarded, &tx.RuleID); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating linked transactions: %w", err)
	}

	return txs, nil
}

func (st *sweepTx) SaveClassification(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET category_id = $1, subcategory_id = $2, is_discarded = $3, rule_id = $4, updated_at = NOW()
		WHERE budget_id = $5 AND id = $6 AND deleted_at IS NULL
	`

	res, err := st.tx.ExecContext(ctx, query,
		tx.CategoryID,
		tx.SubcategoryID,
		tx.IsDiscarded,
		tx.RuleID,
		st.budgetID,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("saving classification: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}
