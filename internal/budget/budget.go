package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("budget not found")
	ErrInvalidName = errors.New("budget name is required")
)

// Budget is the data-store handle every other record is scoped by.
type Budget struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
