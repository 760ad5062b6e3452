package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgeteer/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/budgeteer/internal/budget/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	categoryStore "github.com/MrJamesThe3rd/budgeteer/internal/category/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/config"
	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/database"
	api "github.com/MrJamesThe3rd/budgeteer/internal/http"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/budget"
	categoryHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/category"
	dashboardHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/dashboard"
	importHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/importcsv"
	rulesHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/matching"
	txHandler "github.com/MrJamesThe3rd/budgeteer/internal/http/transaction"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/budgeteer/internal/matching/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
	txStore "github.com/MrJamesThe3rd/budgeteer/internal/transaction/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(cfg.Logger())

	tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		slog.Error("failed to configure auth", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, database.Up); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var (
		budgetService      = budget.NewService(budgetStore.New(db))
		categoryService    = category.NewService(categoryStore.New(db))
		transactionService = transaction.NewService(txStore.New(db), categoryService)
		matchingService    = matching.NewService(matchingStore.New(db), transactionService, categoryService)
		importService      = importer.NewService()
		dashboardService   = dashboard.NewService(transactionService, categoryService, dashboard.Options{
			PageSize:       cfg.Dashboard.PageSize,
			MaxStreakPages: cfg.Dashboard.MaxStreakPages,
		})
	)

	router := api.New(api.Options{
		Tokens:         tokens,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	}, api.Handlers{
		Budget:       budgetHandler.NewHandler(budgetService),
		Transactions: txHandler.NewHandler(transactionService, cfg.Dashboard.DuplicateTolerance),
		Import:       importHandler.NewHandler(importService, transactionService, matchingService),
		Rules:        rulesHandler.NewHandler(matchingService),
		Categories:   categoryHandler.NewHandler(categoryService),
		Dashboard:    dashboardHandler.NewHandler(dashboardService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
