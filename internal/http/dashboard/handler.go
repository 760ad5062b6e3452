package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
)

type Handler struct {
	svc *dashboard.Service
	now func() time.Time
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/period", h.period)
	r.Get("/overview", h.overview)
	r.Get("/history", h.history)
}

// parsePeriod rebuilds the requested period from mode, year, month, start_date and
// end_date, then applies shift=next|prev. A monthly or yearly request without a year
// falls back to the current period.
func (h *Handler) parsePeriod(r *http.Request) (period.Period, error) {
	q := r.URL.Query()

	mode := period.ModeMonthly
	if s := q.Get("mode"); s != "" {
		var err error
		if mode, err = period.ParseMode(s); err != nil {
			return period.Period{}, err
		}
	}

	year, err := param.Int(q, "year", 0)
	if err != nil {
		return period.Period{}, err
	}

	month, err := param.Int(q, "month", 0)
	if err != nil {
		return period.Period{}, err
	}

	var p period.Period

	if mode != period.ModeCustom && year == 0 {
		p = period.Containing(h.now(), mode)
	} else {
		if mode == period.ModeMonthly && month == 0 {
			return period.Period{}, errors.New("month is required with year")
		}

		p, err = period.New(period.Input{
			Mode:      mode,
			Year:      year,
			Month:     month,
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
		})
		if err != nil {
			return period.Period{}, err
		}
	}

	switch q.Get("shift") {
	case "":
	case "next":
		p = p.Next()
	case "prev":
		p = p.Prev()
	default:
		return period.Period{}, errors.New("shift must be next or prev")
	}

	return p, nil
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) {
	p, err := h.parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPeriodResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	p, err := h.parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.svc.Overview(r.Context(), budgetID, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toOverviewResponse(o)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	p, err := h.parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := param.Int(r.URL.Query(), "page", 0)
	if err != nil || page < 0 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	summaries, err := h.svc.HistoryPage(r.Context(), budgetID, p, page)
	if errors.Is(err, dashboard.ErrPageOutOfRange) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(historyResponse{Page: page, Summaries: toSummaryList(summaries)}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
