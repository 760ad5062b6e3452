package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type rulesState int

const (
	rulesStateBrowse rulesState = iota
	rulesStateForm
)

// RulesModel lists the budget's classification rules in evaluation order.
type RulesModel struct {
	CommonModel
	ruleService *matching.Service
	catService  *category.Service

	state   rulesState
	table   table.Model
	rules   []*matching.Rule
	cats    []*category.Category
	form    *huh.Form
	editing *matching.Rule
	values  *ruleValues

	loading bool
	err     error
	status  string
}

type ruleValues struct {
	matchType   matching.MatchType
	matchString string
	choice      classChoice
	discarded   bool
}

func NewRulesModel(common CommonModel, ruleSvc *matching.Service, catSvc *category.Service) RulesModel {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Match", Width: 10},
		{Title: "Pattern", Width: 32},
		{Title: "Category", Width: 32},
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

	return RulesModel{
		CommonModel: common,
		ruleService: ruleSvc,
		catService:  catSvc,
		table:       t,
		loading:     true,
	}
}

func (m RulesModel) Title() string { return "Rules" }

func (m RulesModel) ShortHelp() string {
	if m.state == rulesStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | e: edit | d: delete | K/J: move up/down | a: apply to uncategorized | A: apply to all"
}

func (m RulesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RulesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRulesMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.rules = msg.rules
			m.cats = msg.cats
			m.refreshTable()
		}

		return m, nil

	case ruleResultMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = rulesStateBrowse
		m.form = nil
		m.editing = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)

		return m, nil
	}

	if m.state == rulesStateForm {
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m RulesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "n":
			return m.startForm(nil)
		case "e", "enter":
			if r := m.selected(); r != nil {
				return m.startForm(r)
			}

			return m, nil
		case "d":
			if r := m.selected(); r != nil {
				return m, m.deleteCmd(r.ID)
			}

			return m, nil
		case "K":
			return m.move(-1)
		case "J":
			return m.move(1)
		case "a":
			return m, m.applyCmd(transaction.ListFilter{Uncategorized: true, Unlinked: true})
		case "A":
			return m, m.applyCmd(transaction.ListFilter{})
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RulesModel) selected() *matching.Rule {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rules) {
		return nil
	}

	return m.rules[idx]
}

// move swaps the selected rule with its neighbour and stores the new order.
func (m RulesModel) move(delta int) (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	target := idx + delta

	if idx < 0 || target < 0 || target >= len(m.rules) {
		return m, nil
	}

	ids := make([]uuid.UUID, len(m.rules))
	for i, r := range m.rules {
		ids[i] = r.ID
	}

	ids[idx], ids[target] = ids[target], ids[idx]
	m.table.SetCursor(target)

	return m, m.reorderCmd(ids)
}

func (m RulesModel) startForm(r *matching.Rule) (tea.Model, tea.Cmd) {
	m.editing = r
	m.values = &ruleValues{matchType: matching.MatchContains}

	if r != nil {
		m.values = &ruleValues{
			matchType:   r.MatchType,
			matchString: r.MatchString,
			choice:      choiceOf(r.Classification),
			discarded:   r.IsDiscarded,
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[matching.MatchType]().
				Key("match_type").
				Title("Match").
				Options(
					huh.NewOption("Name contains", matching.MatchContains),
					huh.NewOption("Name equals", matching.MatchExact),
				).
				Value(&m.values.matchType),

			huh.NewInput().
				Key("match_string").
				Title("Pattern").
				Value(&m.values.matchString).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("pattern cannot be empty")
					}

					return nil
				}),

			huh.NewSelect[classChoice]().
				Key("category").
				Title("Category").
				Options(classOptions(m.cats)...).
				Value(&m.values.choice),

			huh.NewConfirm().
				Key("discarded").
				Title("Discard matching transactions?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.values.discarded),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = rulesStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m RulesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = rulesStateBrowse
		m.form = nil
		m.editing = nil
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

	return m, m.saveCmd()
}

func (m RulesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading rules...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(fmt.Sprintf("%d rules, first match wins", len(m.rules))),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.state == rulesStateForm && m.form != nil {
		title := "New Rule"
		if m.editing != nil {
			title = "Edit Rule"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *RulesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rules))
	for i, r := range m.rules {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			string(r.MatchType),
			r.MatchString,
			classLabel(r.Classification, m.cats),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRulesMsg struct {
	rules []*matching.Rule
	cats  []*category.Category
	err   error
}

type ruleResultMsg struct {
	status string
	err    error
}

func (m RulesModel) loadCmd() tea.Cmd {
	ruleSvc, catSvc := m.ruleService, m.catService
	budgetID := m.BudgetID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rules, err := ruleSvc.List(ctx, budgetID)
		if err != nil {
			return loadRulesMsg{err: err}
		}

		cats, err := catSvc.List(ctx, budgetID)

		return loadRulesMsg{rules: rules, cats: cats, err: err}
	}
}

func (m RulesModel) saveCmd() tea.Cmd {
	svc := m.ruleService
	budgetID := m.BudgetID
	editing := m.editing
	params := matching.RuleParams{
		MatchType:      m.values.matchType,
		MatchString:    strings.TrimSpace(m.values.matchString),
		Classification: m.values.choice.classification(m.values.discarded),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if editing == nil {
			_, applied, err := svc.Create(ctx, budgetID, params)
			return ruleResultMsg{status: fmt.Sprintf("Rule created, classified %d transactions.", applied), err: err}
		}

		_, res, err := svc.Update(ctx, budgetID, editing.ID, params)
		if err != nil {
			return ruleResultMsg{err: err}
		}

		return ruleResultMsg{status: fmt.Sprintf("Rule saved: %d refreshed, %d unlinked.", res.Refreshed, res.Unlinked)}
	}
}

func (m RulesModel) deleteCmd(id uuid.UUID) tea.Cmd {
	svc := m.ruleService
	budgetID := m.BudgetID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return ruleResultMsg{status: "Rule deleted.", err: svc.Delete(ctx, budgetID, id)}
	}
}

func (m RulesModel) reorderCmd(ids []uuid.UUID) tea.Cmd {
	svc := m.ruleService
	budgetID := m.BudgetID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return ruleResultMsg{status: "Order saved.", err: svc.Reorder(ctx, budgetID, ids)}
	}
}

func (m RulesModel) applyCmd(filter transaction.ListFilter) tea.Cmd {
	svc := m.ruleService
	budgetID := m.BudgetID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		n, err := svc.ApplyAll(ctx, budgetID, filter)

		return ruleResultMsg{status: fmt.Sprintf("Updated %d transactions.", n), err: err}
	}
}
