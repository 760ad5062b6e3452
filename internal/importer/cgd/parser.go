package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer/amount"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer/charset"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

const dateLayout = "02-01-2006"

var ErrUnknownFormat = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser reads Caixa Geral de Depósitos CSV exports. The export flavour is
// recognised from the header row, wherever it sits in the file.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Name() string { return "cgd" }

func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, err := charset.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, ErrUnknownFormat
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
}

// colIndex maps trimmed header names to their position.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].matches(cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// parseRows skips rows without a parseable date or a non-zero amount (footers,
// page markers). headerRow is the 0-based header index, used for error messages.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRow int) ([]transaction.CreateParams, error) {
	dateIdx := cols[p.DateCol]
	nameIdx := cols[p.DescCol]

	var out []transaction.CreateParams

	for i, row := range rows {
		rowNum := headerRow + i + 2

		date, err := time.Parse(dateLayout, cellValue(row, dateIdx))
		if err != nil {
			continue
		}

		name := cellValue(row, nameIdx)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		cents, ok := p.amount(cols, row)
		if !ok {
			continue
		}

		out = append(out, transaction.CreateParams{
			Date:   date,
			Name:   name,
			Amount: cents,
		})
	}

	return out, nil
}

// amount returns signed cents: debits negative, credits positive.
func (p *Profile) amount(cols colIndex, row []string) (int64, bool) {
	switch p.AmountMode {
	case amountSingle:
		return nonZero(cellValue(row, cols[p.AmountCol]))
	case amountSplit:
		if cents, ok := nonZero(cellValue(row, cols[p.DebitCol])); ok {
			return -abs(cents), true
		}

		if cents, ok := nonZero(cellValue(row, cols[p.CreditCol])); ok {
			return abs(cents), true
		}
	}

	return 0, false
}

func nonZero(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}

	cents, err := amount.Parse(s, amount.European)
	if err != nil || cents == 0 {
		return 0, false
	}

	return cents, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
