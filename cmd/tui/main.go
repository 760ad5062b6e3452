package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgeteer/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/budgeteer/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/budgeteer/internal/budget/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	categoryStore "github.com/MrJamesThe3rd/budgeteer/internal/category/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/config"
	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/database"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/budgeteer/internal/matching/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
	txStore "github.com/MrJamesThe3rd/budgeteer/internal/transaction/store"
)

type services struct {
	tx        *transaction.Service
	category  *category.Service
	matching  *matching.Service
	importer  *importer.Service
	dashboard *dashboard.Service
}

type model struct {
	svc    services
	common view.CommonModel
	budget string

	currentView View
	active      view.View
}

type View int

const (
	ViewMenu         View = 0
	ViewDashboard    View = 1
	ViewTransactions View = 2
	ViewRules        View = 3
	ViewImport       View = 4
)

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) open(v View) (tea.Model, tea.Cmd) {
	switch v {
	case ViewDashboard:
		m.active = view.NewDashboardModel(m.common, m.svc.dashboard)
	case ViewTransactions:
		m.active = view.NewTransactionsModel(m.common, m.svc.tx, m.svc.category)
	case ViewRules:
		m.active = view.NewRulesModel(m.common, m.svc.matching, m.svc.category)
	case ViewImport:
		m.active = view.NewImportModel(m.common, m.svc.tx, m.svc.importer, m.svc.matching)
	default:
		return m, nil
	}

	m.currentView = v

	return m, m.active.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.open(ViewDashboard)
			case "2":
				return m.open(ViewTransactions)
			case "3":
				return m.open(ViewRules)
			case "4":
				return m.open(ViewImport)
			}

			return m, nil
		}
	case tea.WindowSizeMsg:
		m.common.Width, m.common.Height = msg.Width, msg.Height
	case view.BackMsg:
		m.currentView = ViewMenu
		m.active = nil

		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	newModel, cmd := m.active.Update(msg)
	if v, ok := newModel.(view.View); ok {
		m.active = v
	}

	return m, cmd
}

func (m model) View() string {
	if m.currentView == ViewMenu || m.active == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Budgeteer: %s\n\n", m.budget) +
				"1. Dashboard\n" +
				"2. Transactions\n" +
				"3. Rules\n" +
				"4. Import Transactions\n\n" +
				"q. Quit",
		)
	}

	return m.active.View()
}

func initialModel() (model, func(), error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return model{}, nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return model{}, nil, err
	}

	slog.SetDefault(cfg.Logger())

	budgetID, err := uuid.Parse(cfg.TUI.BudgetID)
	if err != nil {
		return model{}, nil, fmt.Errorf("TUI_BUDGET_ID must be a budget uuid: %w", err)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return model{}, nil, fmt.Errorf("connecting to database: %w", err)
	}

	closeDB := func() { _ = db.Close() }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := budget.NewService(budgetStore.New(db)).Get(ctx, budgetID)
	if err != nil {
		closeDB()
		return model{}, nil, fmt.Errorf("loading budget %s: %w", budgetID, err)
	}

	catSvc := category.NewService(categoryStore.New(db))
	txSvc := transaction.NewService(txStore.New(db), catSvc)

	svc := services{
		tx:       txSvc,
		category: catSvc,
		matching: matching.NewService(matchingStore.New(db), txSvc, catSvc),
		importer: importer.NewService(),
		dashboard: dashboard.NewService(txSvc, catSvc, dashboard.Options{
			PageSize:       cfg.Dashboard.PageSize,
			MaxStreakPages: cfg.Dashboard.MaxStreakPages,
		}),
	}

	return model{
		svc:         svc,
		common:      view.CommonModel{BudgetID: budgetID},
		budget:      b.Name,
		currentView: ViewMenu,
	}, closeDB, nil
}

func main() {
	m, closeDB, err := initialModel()
	if err != nil {
		slog.Error("failed to start TUI", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
