package transaction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type Handler struct {
	svc       *transaction.Service
	tolerance time.Duration
}

func NewHandler(svc *transaction.Service, duplicateTolerance time.Duration) *Handler {
	return &Handler{svc: svc, tolerance: duplicateTolerance}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/duplicates", h.duplicates)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/classification", h.classify)
	r.Patch("/{id}", h.update)
}

type createTransactionRequest struct {
	Date          time.Time  `json:"date"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	IsDiscarded   bool       `json:"is_discarded"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.Date.IsZero() {
		http.Error(w, "name and date are required", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Create(r.Context(), budgetID, transaction.CreateParams{
		Date:   req.Date,
		Name:   req.Name,
		Amount: req.Amount,
		Classification: transaction.Classification{
			CategoryID:    param.NullID(req.CategoryID),
			SubcategoryID: param.NullID(req.SubcategoryID),
			IsDiscarded:   req.IsDiscarded,
		},
	})
	if errors.Is(err, transaction.ErrInvalidClassification) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func parseFilter(r *http.Request) (transaction.ListFilter, error) {
	q := r.URL.Query()

	var (
		filter transaction.ListFilter
		err    error
	)

	if filter.StartDate, err = param.Date(q, "start_date"); err != nil {
		return filter, err
	}

	if filter.EndDate, err = param.Date(q, "end_date"); err != nil {
		return filter, err
	}

	if filter.EndDate != nil {
		filter.EndDate = new(filter.EndDate.Add(24*time.Hour - time.Millisecond))
	}

	if filter.CategoryID, err = param.UUID(q, "category_id"); err != nil {
		return filter, err
	}

	if filter.RuleID, err = param.UUID(q, "rule_id"); err != nil {
		return filter, err
	}

	filter.Uncategorized = param.Bool(q, "uncategorized")
	filter.Unlinked = param.Bool(q, "unlinked")
	filter.Search = q.Get("search")

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.svc.List(r.Context(), budgetID, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) duplicates(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tolerance := h.tolerance

	if s := r.URL.Query().Get("tolerance"); s != "" {
		tolerance, err = time.ParseDuration(s)
		if err != nil || tolerance < 0 {
			http.Error(w, "invalid tolerance", http.StatusBadRequest)
			return
		}
	}

	groups, err := h.svc.Duplicates(r.Context(), budgetID, filter, tolerance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([][]transactionResponse, len(groups))
	for i, g := range groups {
		resp[i] = toResponseList(g)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), budgetID, id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), budgetID, id); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateTransactionRequest struct {
	Name   *string    `json:"name,omitempty"`
	Amount *int64     `json:"amount,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), budgetID, id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.Name != nil {
		tx.Name = *req.Name
	}

	if req.Amount != nil {
		tx.Amount = *req.Amount
	}

	if req.Date != nil {
		tx.Date = *req.Date
	}

	if err := h.svc.Update(r.Context(), tx); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type classifyRequest struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	IsDiscarded   bool       `json:"is_discarded"`
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = h.svc.Classify(r.Context(), budgetID, id, transaction.Classification{
		CategoryID:    param.NullID(req.CategoryID),
		SubcategoryID: param.NullID(req.SubcategoryID),
		IsDiscarded:   req.IsDiscarded,
	})

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, transaction.ErrInvalidClassification):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, transaction.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
