package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type transactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	Date          time.Time  `json:"date"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	IsDiscarded   bool       `json:"is_discarded"`
	RuleID        *uuid.UUID `json:"rule_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		Date:          tx.Date,
		Name:          tx.Name,
		Amount:        tx.Amount,
		CategoryID:    param.OptionalID(tx.CategoryID),
		SubcategoryID: param.OptionalID(tx.SubcategoryID),
		IsDiscarded:   tx.IsDiscarded,
		RuleID:        param.OptionalID(tx.RuleID),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
