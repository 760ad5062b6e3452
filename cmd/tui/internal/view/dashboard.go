package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgeteer/internal/dashboard"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
)

type dashState int

const (
	dashStateOverview dashState = iota
	dashStateRange
)

var (
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	panelStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// DashboardModel shows the overview of one period and lets the user move between periods.
type DashboardModel struct {
	CommonModel
	svc *dashboard.Service
	now func() time.Time

	state    dashState
	period   period.Period
	overview *dashboard.Overview
	picker   RangePicker
	spinner  spinner.Model
	loading  bool
	err      error
}

func NewDashboardModel(common CommonModel, svc *dashboard.Service) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return DashboardModel{
		CommonModel: common,
		svc:         svc,
		now:         time.Now,
		period:      period.Containing(time.Now(), period.ModeMonthly),
		picker:      NewRangePicker(),
		spinner:     s,
		loading:     true,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	if m.state == dashStateRange {
		return "Enter: apply | Tab: switch | Esc: cancel"
	}

	return "←/→: period | m: monthly/yearly | c: custom range | t: today | r: refresh | Esc: back"
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewMsg:
		if !msg.period.Equal(m.period) {
			// A newer request is in flight.
			return m, nil
		}

		m.loading = false
		m.overview = msg.overview
		m.err = msg.err

		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case RangeSelectedMsg:
		m.state = dashStateOverview
		m.period = msg.Period

		return m, m.reload()

	case RangeCanceledMsg:
		m.state = dashStateOverview
		return m, nil
	}

	if m.state == dashStateRange {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "right", "l":
		m.period = m.period.Next()
	case "left", "h":
		m.period = m.period.Prev()
	case "m":
		mode := period.ModeYearly
		if m.period.Mode == period.ModeYearly {
			mode = period.ModeMonthly
		}

		m.period = period.Containing(m.period.Begin, mode)
	case "t":
		mode := m.period.Mode
		if mode == period.ModeCustom {
			mode = period.ModeMonthly
		}

		m.period = period.Containing(m.now(), mode)
	case "c":
		m.state = dashStateRange

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Focus()

		return m, cmd
	case "r":
	default:
		return m, nil
	}

	return m, m.reload()
}

func (m *DashboardModel) reload() tea.Cmd {
	m.loading = true

	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

type overviewMsg struct {
	period   period.Period
	overview *dashboard.Overview
	err      error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	svc := m.svc
	budgetID := m.BudgetID
	p := m.period

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		o, err := svc.Overview(ctx, budgetID, p)

		return overviewMsg{period: p, overview: o, err: err}
	}
}

func (m DashboardModel) View() string {
	if m.state == dashStateRange {
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	}

	title := headerStyle.Render(fmt.Sprintf("%s  (%s)", m.period.Title(), m.period.Mode))

	var body string

	switch {
	case m.loading:
		body = m.spinner.View() + " Loading..."
	case m.err != nil:
		body = expenseStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.overview != nil:
		body = lipgloss.JoinVertical(lipgloss.Left,
			panelStyle.Render(summaryView(m.overview.Summary, m.overview.Streak)),
			panelStyle.Render(breakdownView(m.overview.Breakdown)),
		)
	}

	return lipgloss.NewStyle().Padding(1).Render(
		title + "\n\n" + body + "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)
}

func summaryView(s dashboard.Summary, streak dashboard.Streak) string {
	unit := streak.Unit
	if streak.Count != 1 {
		unit += "s"
	}

	return fmt.Sprintf(
		"Income:    %s\nExpenses:  %s\nBalance:   %s\nTransactions: %d\nStreak: %d %s in the black",
		incomeStyle.Render(FormatAmount(s.Income)),
		expenseStyle.Render(FormatAmount(s.Expenses)),
		signed(s.Balance),
		s.TransactionCount,
		streak.Count, unit,
	)
}

func breakdownView(b dashboard.Breakdown) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-24s %12s %12s %12s\n", "Category", "Budgeted", "Spent", "Remaining")

	for _, c := range b.Categories {
		fmt.Fprintf(&sb, "%-24s %12s %12s %12s\n",
			truncate(c.Name, 24), FormatAmount(c.Budgeted), FormatAmount(c.Spent), signed(c.Remaining))
	}

	if b.Uncategorized != 0 {
		fmt.Fprintf(&sb, "%-24s %12s %12s\n", "Uncategorized", "", FormatAmount(b.Uncategorized))
	}

	fmt.Fprintf(&sb, "%-24s %12s %12s", "Total", FormatAmount(b.TotalBudgeted), FormatAmount(b.TotalSpent))

	return sb.String()
}

func signed(cents int64) string {
	if cents < 0 {
		return expenseStyle.Render(FormatAmount(cents))
	}

	return incomeStyle.Render(FormatAmount(cents))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
