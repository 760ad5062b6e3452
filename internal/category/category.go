package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("category not found")
	ErrInvalidCategory = errors.New("invalid category")
)

// Category groups transactions and carries a monthly budget in cents.
type Category struct {
	ID            uuid.UUID
	BudgetID      uuid.UUID
	Name          string
	MonthlyBudget int64
	Subcategories []Subcategory
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type Subcategory struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Name       string
}

// Subcategory returns the subcategory with the given id, if it belongs to c.
func (c *Category) Subcategory(id uuid.UUID) (Subcategory, bool) {
	for _, s := range c.Subcategories {
		if s.ID == id {
			return s, true
		}
	}

	return Subcategory{}, false
}
