package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/budget"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/importcsv"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/transaction"
)

type Handlers struct {
	Budget       *budget.Handler
	Transactions *transaction.Handler
	Import       *importcsv.Handler
	Rules        *matching.Handler
	Categories   *category.Handler
	Dashboard    *dashboard.Handler
}

type Options struct {
	Tokens         *auth.Tokens
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Tokens.Middleware)

		r.Route("/budget", h.Budget.Routes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/import", h.Import.Routes)

		r.Route("/rules", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Rules.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Categories.Routes(r)
		})

		r.Route("/dashboard", h.Dashboard.Routes)
	})

	return router
}
