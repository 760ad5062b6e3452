package budget

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/budget"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.current)
}

type budgetResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// current describes the budget the bearer token is scoped to.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	b, err := h.svc.Get(r.Context(), budgetID)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			http.Error(w, "budget not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(budgetResponse{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
