package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("transaction not found")
	ErrInvalidClassification = errors.New("invalid classification")
)

// Classification is the part of a transaction that rules and users assign.
// An invalid uuid.NullUUID is the only representation of "no category".
type Classification struct {
	CategoryID    uuid.NullUUID
	SubcategoryID uuid.NullUUID
	IsDiscarded   bool
}

// Transaction represents a bank transaction within a budget.
type Transaction struct {
	ID       uuid.UUID
	BudgetID uuid.UUID
	Date     time.Time
	Name     string
	Amount   int64 // Signed cents: positive is income, zero or negative is expense.

	Classification

	// RuleID links the transaction to the rule that last classified it.
	RuleID uuid.NullUUID

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// IsIncome reports whether the transaction counts towards income.
func (t *Transaction) IsIncome() bool {
	return t.Amount > 0
}

// ApplyRule sets the classification assigned by a rule and links the rule.
func (t *Transaction) ApplyRule(ruleID uuid.UUID, c Classification) {
	t.Classification = c
	t.RuleID = uuid.NullUUID{UUID: ruleID, Valid: true}
}

// Unlink drops the rule association and keeps the classification as it is.
func (t *Transaction) Unlink() {
	t.RuleID = uuid.NullUUID{}
}

// SomeID wraps id as a present optional id.
func SomeID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}
