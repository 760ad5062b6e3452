package budget

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*Budget, error)
	ListBudgets(ctx context.Context) ([]*Budget, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (*Budget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	b := &Budget{Name: name}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Budget, error) {
	return s.repo.ListBudgets(ctx)
}
