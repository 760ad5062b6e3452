package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type txState int

const (
	txStateBrowse txState = iota
	txStateClassify
)

var (
	classFilterLabels = []string{"All", "Uncategorized", "Not linked to a rule"}
	dateFilterLabels  = []string{"All Time", "This Month", "Last Month", "This Year"}
)

type TransactionsModel struct {
	CommonModel
	txService  *transaction.Service
	catService *category.Service
	now        func() time.Time

	state txState
	table table.Model
	txs   []*transaction.Transaction
	cats  []*category.Category
	form  *huh.Form

	classFilterIdx int
	dateFilterIdx  int

	filter  transaction.ListFilter
	loading bool
	err     error
	status  string

	// Form bindings live on the heap so they survive model copies.
	values *classifyValues
}

type classifyValues struct {
	choice    classChoice
	discarded bool
}

func NewTransactionsModel(common CommonModel, txSvc *transaction.Service, catSvc *category.Service) TransactionsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Name", Width: 36},
		{Title: "Category", Width: 28},
		{Title: "Rule", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return TransactionsModel{
		CommonModel: common,
		txService:   txSvc,
		catService:  catSvc,
		now:         time.Now,
		table:       t,
		loading:     true,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	if m.state == txStateClassify {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: classify | u: class filter | d: date filter | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTxsMsg:
		m.loading = false
		m.err = msg.err

		if msg.err != nil {
			return m, nil
		}

		m.txs = msg.txs
		m.cats = msg.cats
		m.refreshTable()

		return m, nil

	case classifyResultMsg:
		m.status = "Saved."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = txStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)

		return m, nil
	}

	switch m.state {
	case txStateBrowse:
		return m.updateBrowse(msg)
	case txStateClassify:
		return m.updateClassify(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "e", "enter":
			return m.startClassify()
		case "u":
			m.classFilterIdx = (m.classFilterIdx + 1) % len(classFilterLabels)
			m.applyFilter()
			m.loading = true

			return m, m.loadTxsCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(dateFilterLabels)
			m.applyFilter()
			m.loading = true

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *TransactionsModel) applyFilter() {
	m.filter.Uncategorized = m.classFilterIdx == 1
	m.filter.Unlinked = m.classFilterIdx == 2

	var p period.Period

	now := m.now()

	switch m.dateFilterIdx {
	case 1:
		p = period.Containing(now, period.ModeMonthly)
	case 2:
		p = period.Containing(now, period.ModeMonthly).Prev()
	case 3:
		p = period.Containing(now, period.ModeYearly)
	}

	if p.IsZero() {
		m.filter.StartDate = nil
		m.filter.EndDate = nil

		return
	}

	m.filter.StartDate = &p.Begin
	m.filter.EndDate = &p.End
}

func (m TransactionsModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m TransactionsModel) startClassify() (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	m.values = &classifyValues{choice: choiceOf(tx.Classification), discarded: tx.IsDiscarded}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[classChoice]().
				Key("category").
				Title("Category").
				Options(classOptions(m.cats)...).
				Value(&m.values.choice),

			huh.NewConfirm().
				Key("discarded").
				Title("Discard from totals?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.values.discarded),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = txStateClassify
	m.table.Blur()

	return m, m.form.Init()
}

func (m TransactionsModel) updateClassify(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = txStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.classifyCmd()
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(r to retry, Esc to go back)", m.err))
	}

	header := fmt.Sprintf(
		"Filter: [u] %s | [d] Date: %s | %d transactions",
		activeStyle(classFilterLabels[m.classFilterIdx]),
		activeStyle(dateFilterLabels[m.dateFilterIdx]),
		len(m.txs),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == txStateClassify && m.form != nil {
		name := ""
		if tx := m.selected(); tx != nil {
			name = fmt.Sprintf("%s  %s\n%s", FormatDate(tx.Date), FormatAmount(tx.Amount), tx.Name)
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Classify Transaction\n\n%s\n\n%s", name, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *TransactionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))

	for _, tx := range m.txs {
		linked := ""
		if tx.RuleID.Valid {
			linked = "yes"
		}

		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			FormatAmount(tx.Amount),
			tx.Name,
			classLabel(tx.Classification, m.cats),
			linked,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadTxsMsg struct {
	txs  []*transaction.Transaction
	cats []*category.Category
	err  error
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	txSvc, catSvc := m.txService, m.catService
	budgetID := m.BudgetID
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := txSvc.List(ctx, budgetID, filter)
		if err != nil {
			return loadTxsMsg{err: err}
		}

		cats, err := catSvc.List(ctx, budgetID)

		return loadTxsMsg{txs: txs, cats: cats, err: err}
	}
}

type classifyResultMsg struct {
	err error
}

func (m TransactionsModel) classifyCmd() tea.Cmd {
	tx := m.selected()
	if tx == nil || m.values == nil {
		return nil
	}

	svc := m.txService
	budgetID := m.BudgetID
	c := m.values.choice.classification(m.values.discarded)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return classifyResultMsg{err: svc.Classify(ctx, budgetID, tx.ID, c)}
	}
}
