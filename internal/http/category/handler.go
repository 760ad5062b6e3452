package category

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/subcategories", h.addSubcategory)
	r.Delete("/{id}/subcategories/{subID}", h.removeSubcategory)
}

type subcategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type categoryResponse struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	MonthlyBudget int64                 `json:"monthly_budget"`
	Subcategories []subcategoryResponse `json:"subcategories"`
}

func toResponse(c *category.Category) categoryResponse {
	subs := make([]subcategoryResponse, len(c.Subcategories))
	for i, s := range c.Subcategories {
		subs[i] = subcategoryResponse{ID: s.ID, Name: s.Name}
	}

	return categoryResponse{ID: c.ID, Name: c.Name, MonthlyBudget: c.MonthlyBudget, Subcategories: subs}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, category.ErrInvalidCategory):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, category.ErrNotFound):
		http.Error(w, "category not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	cats, err := h.svc.List(r.Context(), budgetID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = toResponse(c)
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

	c, err := h.svc.Get(r.Context(), budgetID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type createRequest struct {
	Name          string `json:"name"`
	MonthlyBudget int64  `json:"monthly_budget"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Create(r.Context(), budgetID, category.CreateParams{Name: req.Name, MonthlyBudget: req.MonthlyBudget})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateRequest struct {
	Name          *string `json:"name,omitempty"`
	MonthlyBudget *int64  `json:"monthly_budget,omitempty"`
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

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Update(r.Context(), budgetID, id, category.UpdateParams{Name: req.Name, MonthlyBudget: req.MonthlyBudget})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
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

type subcategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) addSubcategory(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req subcategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.svc.AddSubcategory(r.Context(), budgetID, id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(subcategoryResponse{ID: sub.ID, Name: sub.Name}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) removeSubcategory(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	id, err := param.ID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	subID, err := param.ID(r, "subID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveSubcategory(r.Context(), budgetID, id, subID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
