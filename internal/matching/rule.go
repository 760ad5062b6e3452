package matching

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

var (
	ErrNotFound    = errors.New("rule not found")
	ErrInvalidRule = errors.New("invalid rule")
	ErrSweepFailed = errors.New("rule re-classification failed")
)

type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// Rule assigns a classification to transactions whose name matches MatchString.
// Rules are evaluated by ascending Position; the first match wins.
type Rule struct {
	ID          uuid.UUID
	BudgetID    uuid.UUID
	MatchType   MatchType
	MatchString string

	transaction.Classification

	Position  int
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Matches reports whether name satisfies the rule. Exact matching is case-sensitive,
// contains matching is not.
func (r *Rule) Matches(name string) bool {
	switch r.MatchType {
	case MatchExact:
		return name == r.MatchString
	case MatchContains:
		return strings.Contains(strings.ToLower(name), strings.ToLower(r.MatchString))
	}

	return false
}

// Match returns the first rule in list order that matches name.
func Match(name string, rules []*Rule) (*Rule, bool) {
	for _, r := range rules {
		if r.Matches(name) {
			return r, true
		}
	}

	return nil, false
}

// Apply classifies tx with the first matching rule and links it. Without a match the
// transaction is left exactly as it was.
func Apply(tx *transaction.Transaction, rules []*Rule) bool {
	r, ok := Match(tx.Name, rules)
	if !ok {
		return false
	}

	tx.ApplyRule(r.ID, r.Classification)

	return true
}

type RuleParams struct {
	MatchType   MatchType
	MatchString string

	transaction.Classification
}

func (p RuleParams) Validate() error {
	switch p.MatchType {
	case MatchExact, MatchContains:
	default:
		return fmt.Errorf("%w: unknown match type %q", ErrInvalidRule, p.MatchType)
	}

	if strings.TrimSpace(p.MatchString) == "" {
		return fmt.Errorf("%w: match string is empty", ErrInvalidRule)
	}

	if p.SubcategoryID.Valid && !p.CategoryID.Valid {
		return fmt.Errorf("%w: subcategory requires a category", ErrInvalidRule)
	}

	return nil
}
