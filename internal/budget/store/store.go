package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/budget"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	query := `INSERT INTO budgets (name, created_at) VALUES ($1, NOW()) RETURNING id, created_at`

	if err := s.db.QueryRowContext(ctx, query, b.Name).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("creating budget: %w", err)
	}

	return nil
}

func (s *Store) GetBudget(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	var b budget.Budget

	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM budgets WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget: %w", err)
	}

	return &b, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]*budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM budgets ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget

	for rows.Next() {
		var b budget.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		budgets = append(budgets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}

	return budgets, nil
}
