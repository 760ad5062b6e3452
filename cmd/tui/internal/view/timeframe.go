package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgeteer/internal/period"
)

// RangeSelectedMsg is emitted when the user has entered a valid custom range.
type RangeSelectedMsg struct {
	Period period.Period
}

// RangeCanceledMsg is emitted when the user leaves the picker with Esc.
type RangeCanceledMsg struct{}

// RangePicker reads a custom YYYY-MM-DD range from two text inputs.
type RangePicker struct {
	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

func NewRangePicker() RangePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	return RangePicker{startInput: si, endInput: ei}
}

// Focus resets the picker and focuses the start input.
func (m RangePicker) Focus() (RangePicker, tea.Cmd) {
	m.startInput.SetValue("")
	m.endInput.SetValue("")
	m.endInput.Blur()
	m.focusIndex = 0
	m.err = nil
	m.startInput.Focus()

	return m, textinput.Blink
}

func (m RangePicker) Update(msg tea.Msg) (RangePicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	switch keyMsg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
			return m, textinput.Blink
		}

		m.endInput.Focus()

		return m, textinput.Blink

	case "enter":
		p, err := period.New(period.Input{
			Mode:      period.ModeCustom,
			StartDate: m.startInput.Value(),
			EndDate:   m.endInput.Value(),
		})
		if err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil

		return m, func() tea.Msg { return RangeSelectedMsg{Period: p} }

	case "esc":
		m.err = nil
		return m, func() tea.Msg { return RangeCanceledMsg{} }
	}

	return m.updateInputs(msg)
}

func (m RangePicker) updateInputs(msg tea.Msg) (RangePicker, tea.Cmd) {
	var (
		cmds []tea.Cmd
		c    tea.Cmd
	)

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m RangePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	return fmt.Sprintf(
		"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
		m.startInput.View(),
		m.endInput.View(),
		errStr,
	)
}
