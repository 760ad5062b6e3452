package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Column order matches selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	if err := s.Scan(
		&tx.ID, &tx.BudgetID, &tx.Date, &tx.Name, &tx.Amount,
		&tx.CategoryID, &tx.SubcategoryID, &tx.RuleID, &tx.IsDiscarded,
		&tx.CreatedAt, &tx.UpdatedAt, &tx.DeletedAt,
	); err != nil {
		return nil, err
	}

	// TIMESTAMPTZ scans in the process zone; dates are compared as UTC calendar days.
	tx.Date = tx.Date.UTC()

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.budget_id, t.date, t.name, t.amount,
	t.category_id, t.subcategory_id, t.rule_id, t.is_discarded,
	t.created_at, t.updated_at, t.deleted_at
`

const insertTransaction = `
	INSERT INTO transactions (budget_id, date, name, amount, category_id, subcategory_id, rule_id, is_discarded, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q queryRower, tx *transaction.Transaction) error {
	err := q.QueryRowContext(ctx, insertTransaction,
		tx.BudgetID,
		tx.Date,
		tx.Name,
		tx.Amount,
		tx.CategoryID,
		tx.SubcategoryID,
		tx.RuleID,
		tx.IsDiscarded,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	return insert(ctx, s.db, tx)
}

func (s *Store) GetTransaction(ctx context.Context, budgetID, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.budget_id = $1 AND t.id = $2 AND t.deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, budgetID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, budgetID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL AND t.budget_id = $1`

	args := []any{budgetID}

	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND t.category_id = $%d", argIdx)

		args = append(args, *filter.CategoryID)
		argIdx++
	}

	if filter.RuleID != nil {
		query += fmt.Sprintf(" AND t.rule_id = $%d", argIdx)

		args = append(args, *filter.RuleID)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND t.name ILIKE '%%' || $%d || '%%'", argIdx)

		args = append(args, filter.Search)
	}

	if filter.Uncategorized {
		query += " AND t.category_id IS NULL AND NOT t.is_discarded"
	}

	if filter.Unlinked {
		query += " AND t.rule_id IS NULL"
	}

	query += " ORDER BY t.date ASC, t.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET date = $1, name = $2, amount = $3, category_id = $4, subcategory_id = $5,
			rule_id = $6, is_discarded = $7, updated_at = NOW()
		WHERE budget_id = $8 AND id = $9 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query,
		tx.Date,
		tx.Name,
		tx.Amount,
		tx.CategoryID,
		tx.SubcategoryID,
		tx.RuleID,
		tx.IsDiscarded,
		tx.BudgetID,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return expectRow(res)
}

// UpdateClassification stores a manual classification and clears the rule link.
func (s *Store) UpdateClassification(ctx context.Context, budgetID, id uuid.UUID, c transaction.Classification) error {
	query := `
		UPDATE transactions
		SET category_id = $1, subcategory_id = $2, is_discarded = $3, rule_id = NULL, updated_at = NOW()
		WHERE budget_id = $4 AND id = $5 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, c.CategoryID, c.SubcategoryID, c.IsDiscarded, budgetID, id)
	if err != nil {
		return fmt.Errorf("updating classification: %w", err)
	}

	return expectRow(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, budgetID, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE budget_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, budgetID, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func importLockKey(budgetID uuid.UUID, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write(budgetID[:])
	h.Write([]byte(minDate.UTC().Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.UTC().Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx       *sql.Tx
	budgetID uuid.UUID
}

func (s *Store) BeginImport(ctx context.Context, budgetID uuid.UUID, minDate, maxDate time.Time) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(budgetID, minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, budgetID: budgetID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		Date   string
		Amount int64
		Name   string
	}

	minDate := params[0].Date
	maxDate := params[0].Date
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}

		keySet[lookupKey{Date: p.Date.UTC().Format(time.DateOnly), Amount: p.Amount, Name: p.Name}] = struct{}{}
	}

	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL AND t.budget_id = $1 AND t.date >= $2 AND t.date <= $3
		ORDER BY t.date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, itx.budgetID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		k := lookupKey{Date: tx.Date.Format(time.DateOnly), Amount: tx.Amount, Name: tx.Name}
		if _, found := keySet[k]; !found {
			continue
		}

		duplicates = append(duplicates, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		tx.BudgetID = itx.budgetID
		if err := insert(ctx, itx.tx, tx); err != nil {
			return err
		}
	}

	return nil
}
