package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer/generic"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateBank importState = iota
	importStateMapping
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

// importSettings is bound to the huh forms, so it lives behind a pointer.
type importSettings struct {
	bank    importer.Bank
	mapping generic.Mapping
}

type ImportModel struct {
	CommonModel
	txService     *transaction.Service
	importService *importer.Service
	ruleService   *matching.Service

	state      importState
	settings   *importSettings
	form       *huh.Form
	filePicker filepicker.Model
	spinner    spinner.Model

	newParams    []transaction.CreateParams
	conflicts    []transaction.Conflict
	conflictList list.Model
	keep         map[int]bool

	status string
	err    error
}

func NewImportModel(common CommonModel, txSvc *transaction.Service, impSvc *importer.Service, ruleSvc *matching.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := ImportModel{
		CommonModel:   common,
		txService:     txSvc,
		importService: impSvc,
		ruleService:   ruleSvc,
		settings: &importSettings{
			mapping: generic.Mapping{DateCol: "date", NameCol: "name", AmountCol: "amount", Decimal: ".", Delimiter: ","},
		},
		filePicker: fp,
		spinner:    s,
		keep:       make(map[int]bool),
	}
	m.form = m.bankForm()

	return m
}

func (m ImportModel) Title() string { return "Import Transactions" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateConflicts {
		return "Space: toggle | a: keep all | n: keep none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) bankForm() *huh.Form {
	banks := m.importService.Banks()

	opts := make([]huh.Option[importer.Bank], 0, len(banks))
	for _, b := range banks {
		label := string(b)
		if b == importer.BankGeneric {
			label = "generic (describe the columns)"
		}

		opts = append(opts, huh.NewOption(label, b))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[importer.Bank]().
				Title("Bank").
				Options(opts...).
				Value(&m.settings.bank),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ImportModel) mappingForm() *huh.Form {
	mp := &m.settings.mapping

	required := func(s string) error {
		if s == "" {
			return errors.New("required")
		}

		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date column").Value(&mp.DateCol).Validate(required),
			huh.NewInput().Title("Date layout").Placeholder("2006-01-02").Value(&mp.DateLayout),
			huh.NewInput().Title("Name column").Value(&mp.NameCol).Validate(required),
			huh.NewInput().Title("Amount column").Description("Leave empty to use debit/credit columns").Value(&mp.AmountCol),
			huh.NewInput().Title("Debit column").Value(&mp.DebitCol),
			huh.NewInput().Title("Credit column").Value(&mp.CreditCol),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Decimal separator").
				Options(huh.NewOption("Dot (1234.56)", "."), huh.NewOption("Comma (1234,56)", ",")).
				Value(&mp.Decimal),
			huh.NewSelect[string]().
				Title("Field delimiter").
				Options(huh.NewOption("Comma", ","), huh.NewOption("Semicolon", ";"), huh.NewOption("Tab", "\t")).
				Value(&mp.Delimiter),
			huh.NewConfirm().Title("Debits are positive numbers?").Value(&mp.Negate),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.back()
		}

	case importResultMsg:
		return m.handleImported(msg), nil

	case confirmResultMsg:
		m.state = importStateResult
		m.err = msg.err
		m.status = fmt.Sprintf("Imported %d transactions.", msg.count)

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, nil

	case spinner.TickMsg:
		if m.state != importStateImporting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	switch m.state {
	case importStateBank, importStateMapping:
		return m.updateForm(msg)
	case importStateFilePick:
		return m.updateFilePick(msg)
	case importStateConflicts:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updateConflicts(keyMsg)
		}
	}

	return m, nil
}

// back steps to the bank form, or leaves the screen from it.
func (m ImportModel) back() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateBank:
		return m, Back
	case importStateImporting:
		return m, nil
	}

	m.state = importStateBank
	m.conflicts = nil
	m.newParams = nil
	m.keep = make(map[int]bool)
	m.err = nil
	m.status = ""
	m.form = m.bankForm()

	return m, m.form.Init()
}

func (m ImportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == importStateBank && m.settings.bank == importer.BankGeneric {
		m.state = importStateMapping
		m.form = m.mappingForm()

		return m, m.form.Init()
	}

	if m.state == importStateMapping {
		if err := m.settings.mapping.Validate(); err != nil {
			m.state = importStateResult
			m.err = err
			m.status = fmt.Sprintf("Error: %v", err)

			return m, nil
		}
	}

	m.state = importStateFilePick

	return m, m.filePicker.Init()
}

func (m ImportModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing %s...", path)

		return m, tea.Batch(m.spinner.Tick, m.importCmd(path))
	}

	return m, cmd
}

func (m ImportModel) handleImported(msg importResultMsg) ImportModel {
	if msg.err != nil {
		m.state = importStateResult
		m.err = msg.err
		m.status = fmt.Sprintf("Error: %v", msg.err)

		return m
	}

	if len(msg.result.Conflicts) == 0 {
		m.state = importStateResult
		m.status = fmt.Sprintf("Imported %d transactions, %d classified by rules.",
			len(msg.result.Imported), classified(msg.result.Imported))

		return m
	}

	m.newParams = msg.result.New
	m.conflicts = msg.result.Conflicts
	m.keep = make(map[int]bool)
	m.state = importStateConflicts

	items := make([]list.Item, len(m.conflicts))
	for i, c := range m.conflicts {
		items[i] = conflictItem{conflict: c, index: i}
	}

	m.conflictList = list.New(items, conflictDelegate{keep: m.keep}, 80, 20)
	m.conflictList.Title = fmt.Sprintf("%d new, %d already stored: pick the rows to import anyway", len(m.newParams), len(m.conflicts))
	m.conflictList.SetShowStatusBar(false)
	m.conflictList.SetFilteringEnabled(false)
	m.conflictList.SetShowHelp(false)

	return m
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.keep[idx] = !m.keep[idx]

		return m, nil
	case "a", "n":
		for i := range m.conflicts {
			m.keep[i] = msg.String() == "a"
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case importStateBank:
		return pad.Render("Import a bank export\n\n" + m.form.View())
	case importStateMapping:
		return pad.Render("Describe the CSV columns\n\n" + m.form.View())
	case importStateFilePick:
		return pad.Render(fmt.Sprintf("Select file to import (%s):\n\n%s", m.settings.bank, m.filePicker.View()))
	case importStateImporting:
		return pad.Render(m.spinner.View() + " " + m.status)
	case importStateConflicts:
		return pad.Render(m.conflictList.View() + "\n" + lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()))
	case importStateResult:
		color := lipgloss.Color("46")
		if m.err != nil {
			color = lipgloss.Color("196")
		}

		return lipgloss.NewStyle().Padding(2).Render(
			lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(Esc to go back)",
		)
	}

	return ""
}

// Messages

type importResultMsg struct {
	result *transaction.ImportResult
	err    error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	importSvc, txSvc, ruleSvc := m.importService, m.txService, m.ruleService
	budgetID := m.BudgetID
	settings := *m.settings

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		var params []transaction.CreateParams
		if settings.bank == importer.BankGeneric {
			params, err = importSvc.ImportMapped(settings.mapping, f)
		} else {
			params, err = importSvc.Import(settings.bank, f)
		}

		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		if err := ruleSvc.ClassifyParams(ctx, budgetID, params); err != nil {
			return importResultMsg{err: fmt.Errorf("applying rules, nothing was imported: %w", err)}
		}

		result, err := txSvc.ImportBatch(ctx, budgetID, params)

		return importResultMsg{result: result, err: err}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	params := append([]transaction.CreateParams(nil), m.newParams...)
	for i, c := range m.conflicts {
		if m.keep[i] {
			params = append(params, c.Incoming)
		}
	}

	txSvc := m.txService
	budgetID := m.BudgetID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := txSvc.CreateBatch(ctx, budgetID, params)

		return confirmResultMsg{count: len(txs), err: err}
	}
}

func classified(txs []*transaction.Transaction) int {
	n := 0

	for _, tx := range txs {
		if tx.RuleID.Valid {
			n++
		}
	}

	return n
}

type conflictItem struct {
	conflict transaction.Conflict
	index    int
}

func (i conflictItem) FilterValue() string { return i.conflict.Incoming.Name }

// conflictDelegate renders an incoming row above the stored transaction it collides with.
type conflictDelegate struct {
	keep map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if d.keep[item.index] {
		checkbox = "[x]"
	}

	line := fmt.Sprintf("%s %s  %10s  %s", checkbox,
		FormatDate(item.conflict.Incoming.Date),
		FormatAmount(item.conflict.Incoming.Amount),
		item.conflict.Incoming.Name,
	)

	if index == m.Index() {
		line = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + line)
	} else {
		line = "  " + line
	}

	existing := item.conflict.Existing
	stored := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("      stored %s  %10s  %s",
		FormatDate(existing.Date), FormatAmount(existing.Amount), existing.Name))

	fmt.Fprintf(w, "%s\n%s\n", line, stored)
}
