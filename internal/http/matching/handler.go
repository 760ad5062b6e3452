package matching

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/order", h.reorder)
	r.Post("/apply", h.apply)
	r.Post("/test", h.test)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type ruleRequest struct {
	MatchType     matching.MatchType `json:"match_type"`
	MatchString   string             `json:"match_string"`
	CategoryID    *uuid.UUID         `json:"category_id"`
	SubcategoryID *uuid.UUID         `json:"subcategory_id"`
	IsDiscarded   bool               `json:"is_discarded"`
}

func (req ruleRequest) params() matching.RuleParams {
	return matching.RuleParams{
		MatchType:   req.MatchType,
		MatchString: req.MatchString,
		Classification: transaction.Classification{
			CategoryID:    param.NullID(req.CategoryID),
			SubcategoryID: param.NullID(req.SubcategoryID),
			IsDiscarded:   req.IsDiscarded,
		},
	}
}

type ruleResponse struct {
	ID            uuid.UUID          `json:"id"`
	MatchType     matching.MatchType `json:"match_type"`
	MatchString   string             `json:"match_string"`
	CategoryID    *uuid.UUID         `json:"category_id"`
	SubcategoryID *uuid.UUID         `json:"subcategory_id"`
	IsDiscarded   bool               `json:"is_discarded"`
	Position      int                `json:"position"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(r *matching.Rule) ruleResponse {
	return ruleResponse{
		ID:            r.ID,
		MatchType:     r.MatchType,
		MatchString:   r.MatchString,
		CategoryID:    param.OptionalID(r.CategoryID),
		SubcategoryID: param.OptionalID(r.SubcategoryID),
		IsDiscarded:   r.IsDiscarded,
		Position:      r.Position,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matching.ErrInvalidRule):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, matching.ErrNotFound):
		http.Error(w, "rule not found", http.StatusNotFound)
	case errors.Is(err, matching.ErrSweepFailed):
		slog.Error("rule sweep failed", "error", err)
		http.Error(w, "updating linked transactions failed, nothing was changed", http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	rules, err := h.svc.List(r.Context(), budgetID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		resp[i] = toResponse(rule)
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

	rule, err := h.svc.Get(r.Context(), budgetID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rule)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type createResponse struct {
	Rule    ruleResponse `json:"rule"`
	Applied int          `json:"applied"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule, applied, err := h.svc.Create(r.Context(), budgetID, req.params())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(createResponse{Rule: toResponse(rule), Applied: applied}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateResponse struct {
	Rule      ruleResponse `json:"rule"`
	Refreshed int          `json:"refreshed"`
	Unlinked  int          `json:"unlinked"`
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

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule, result, err := h.svc.Update(r.Context(), budgetID, id, req.params())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := updateResponse{Rule: toResponse(rule), Refreshed: result.Refreshed, Unlinked: result.Unlinked}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Reorder(r.Context(), budgetID, req.IDs); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	// OnlyUnclassified limits the run to uncategorized transactions without a rule link.
	OnlyUnclassified bool `json:"only_unclassified"`
}

type applyResponse struct {
	Updated int `json:"updated"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	filter := transaction.ListFilter{
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Uncategorized: req.OnlyUnclassified,
		Unlinked:      req.OnlyUnclassified,
	}

	n, err := h.svc.ApplyAll(r.Context(), budgetID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(applyResponse{Updated: n}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type testRequest struct {
	MatchType   matching.MatchType `json:"match_type"`
	MatchString string             `json:"match_string"`
}

type testMatch struct {
	ID     uuid.UUID `json:"id"`
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Amount int64     `json:"amount"`
}

func (h *Handler) test(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.svc.Test(r.Context(), budgetID, req.MatchType, req.MatchString)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]testMatch, len(txs))
	for i, tx := range txs {
		resp[i] = testMatch{ID: tx.ID, Date: tx.Date, Name: tx.Name, Amount: tx.Amount}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
