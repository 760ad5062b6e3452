package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	ListCategories(ctx context.Context, budgetID uuid.UUID) ([]*Category, error)
	GetCategory(ctx context.Context, budgetID, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, budgetID, id uuid.UUID) error

	CreateSubcategory(ctx context.Context, budgetID uuid.UUID, s *Subcategory) error
	DeleteSubcategory(ctx context.Context, budgetID, categoryID, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name          string
	MonthlyBudget int64
}

type UpdateParams struct {
	Name          *string
	MonthlyBudget *int64
}

func (s *Service) List(ctx context.Context, budgetID uuid.UUID) ([]*Category, error) {
	return s.repo.ListCategories(ctx, budgetID)
}

func (s *Service) Get(ctx context.Context, budgetID, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, budgetID, id)
}

// CheckOwnership confirms that categoryID belongs to the budget and, when set, that
// subcategoryID belongs to that category.
func (s *Service) CheckOwnership(ctx context.Context, budgetID, categoryID uuid.UUID, subcategoryID uuid.NullUUID) error {
	c, err := s.repo.GetCategory(ctx, budgetID, categoryID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: category %s is not part of this budget", ErrInvalidCategory, categoryID)
	}

	if err != nil {
		return err
	}

	if subcategoryID.Valid {
		if _, ok := c.Subcategory(subcategoryID.UUID); !ok {
			return fmt.Errorf("%w: subcategory %s is not part of category %s", ErrInvalidCategory, subcategoryID.UUID, categoryID)
		}
	}

	return nil
}

func (s *Service) Create(ctx context.Context, budgetID uuid.UUID, params CreateParams) (*Category, error) {
	name, err := validName(params.Name)
	if err != nil {
		return nil, err
	}

	if params.MonthlyBudget < 0 {
		return nil, fmt.Errorf("%w: monthly budget must not be negative", ErrInvalidCategory)
	}

	c := &Category{BudgetID: budgetID, Name: name, MonthlyBudget: params.MonthlyBudget}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Update(ctx context.Context, budgetID, id uuid.UUID, params UpdateParams) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, budgetID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name, err := validName(*params.Name)
		if err != nil {
			return nil, err
		}

		c.Name = name
	}

	if params.MonthlyBudget != nil {
		if *params.MonthlyBudget < 0 {
			return nil, fmt.Errorf("%w: monthly budget must not be negative", ErrInvalidCategory)
		}

		c.MonthlyBudget = *params.MonthlyBudget
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes the category with its subcategories. Transactions and rules that
// pointed at it become uncategorized.
func (s *Service) Delete(ctx context.Context, budgetID, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, budgetID, id)
}

func (s *Service) AddSubcategory(ctx context.Context, budgetID, categoryID uuid.UUID, name string) (*Subcategory, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	sub := &Subcategory{CategoryID: categoryID, Name: name}
	if err := s.repo.CreateSubcategory(ctx, budgetID, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) RemoveSubcategory(ctx context.Context, budgetID, categoryID, id uuid.UUID) error {
	return s.repo.DeleteSubcategory(ctx, budgetID, categoryID, id)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}

	return name, nil
}
