package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
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

func scanCategory(s scanner) (*category.Category, error) {
	var c category.Category

	if err := s.Scan(&c.ID, &c.BudgetID, &c.Name, &c.MonthlyBudget, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

const selectCategoryColumns = `c.id, c.budget_id, c.name, c.monthly_budget, c.created_at, c.updated_at`

func (s *Store) ListCategories(ctx context.Context, budgetID uuid.UUID) ([]*category.Category, error) {
	query := `SELECT ` + selectCategoryColumns + `
		FROM categories c
		WHERE c.budget_id = $1
		ORDER BY c.name ASC`

	rows, err := s.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var cats []*category.Category

	byID := make(map[uuid.UUID]*category.Category)

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		cats = append(cats, c)
		byID[c.ID] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	subs, err := s.listSubcategories(ctx, budgetID, nil)
	if err != nil {
		return nil, err
	}

	for _, sub := range subs {
		if c, ok := byID[sub.CategoryID]; ok {
			c.Subcategories = append(c.Subcategories, sub)
		}
	}

	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, budgetID, id uuid.UUID) (*category.Category, error) {
	query := `SELECT ` + selectCategoryColumns + `
		FROM categories c
		WHERE c.budget_id = $1 AND c.id = $2`

	c, err := scanCategory(s.db.QueryRowContext(ctx, query, budgetID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, category.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	c.Subcategories, err = s.listSubcategories(ctx, budgetID, &id)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Store) listSubcategories(ctx context.Context, budgetID uuid.UUID, categoryID *uuid.UUID) ([]category.Subcategory, error) {
	query := `
		SELECT s.id, s.category_id, s.name
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id
		WHERE c.budget_id = $1`

	args := []any{budgetID}

	if categoryID != nil {
		query += " AND s.category_id = $2"

		args = append(args, *categoryID)
	}

	query += " ORDER BY s.name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	defer rows.Close()

	var subs []category.Subcategory

	for rows.Next() {
		var sub category.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name); err != nil {
			return nil, fmt.Errorf("scanning subcategory: %w", err)
		}

		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subcategories: %w", err)
	}

	return subs, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (budget_id, name, monthly_budget, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	if err := s.db.QueryRowContext(ctx, query, c.BudgetID, c.Name, c.MonthlyBudget).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *category.Category) error {
	query := `
		UPDATE categories
		SET name = $1, monthly_budget = $2, updated_at = NOW()
		WHERE budget_id = $3 AND id = $4
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.MonthlyBudget, c.BudgetID, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return category.ErrNotFound
		}

		return fmt.Errorf("updating category: %w", err)
	}

	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, budgetID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE budget_id = $1 AND id = $2`, budgetID, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	return expectRow(res)
}

func (s *Store) CreateSubcategory(ctx context.Context, budgetID uuid.UUID, sub *category.Subcategory) error {
	query := `
		INSERT INTO subcategories (category_id, name)
		SELECT c.id, $1 FROM categories c WHERE c.budget_id = $2 AND c.id = $3
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query, sub.Name, budgetID, sub.CategoryID).Scan(&sub.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return category.ErrNotFound
		}

		return fmt.Errorf("creating subcategory: %w", err)
	}

	return nil
}

func (s *Store) DeleteSubcategory(ctx context.Context, budgetID, categoryID, id uuid.UUID) error {
	query := `
		DELETE FROM subcategories s
		USING categories c
		WHERE c.id = s.category_id AND c.budget_id = $1 AND s.category_id = $2 AND s.id = $3
	`

	res, err := s.db.ExecContext(ctx, query, budgetID, categoryID, id)
	if err != nil {
		return fmt.Errorf("deleting subcategory: %w", err)
	}

	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return category.ErrNotFound
	}

	return nil
}
