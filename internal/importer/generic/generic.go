// Package generic imports any delimited bank export given a column mapping.
package generic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer/amount"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer/charset"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

var ErrInvalidMapping = errors.New("invalid column mapping")

// Mapping names the header columns to read. Either AmountCol or both DebitCol and
// CreditCol must be set. Header names are matched case-insensitively.
type Mapping struct {
	DateCol    string `json:"date_column"`
	NameCol    string `json:"name_column"`
	AmountCol  string `json:"amount_column,omitempty"`
	DebitCol   string `json:"debit_column,omitempty"`
	CreditCol  string `json:"credit_column,omitempty"`
	DateLayout string `json:"date_layout,omitempty"` // Go layout, defaults to 2006-01-02
	Decimal    string `json:"decimal_separator,omitempty"`
	Delimiter  string `json:"delimiter,omitempty"` // defaults to ","
	Negate     bool   `json:"negate,omitempty"`    // for exports where debits are positive
}

func (m Mapping) Validate() error {
	if m.DateCol == "" || m.NameCol == "" {
		return fmt.Errorf("%w: date and name columns are required", ErrInvalidMapping)
	}

	split := m.DebitCol != "" || m.CreditCol != ""

	switch {
	case m.AmountCol == "" && !split:
		return fmt.Errorf("%w: amount column or debit/credit columns are required", ErrInvalidMapping)
	case m.AmountCol != "" && split:
		return fmt.Errorf("%w: amount column and debit/credit columns are exclusive", ErrInvalidMapping)
	case split && (m.DebitCol == "" || m.CreditCol == ""):
		return fmt.Errorf("%w: debit and credit columns go together", ErrInvalidMapping)
	}

	if utf8.RuneCountInString(m.Delimiter) > 1 {
		return fmt.Errorf("%w: delimiter must be a single character", ErrInvalidMapping)
	}

	if _, err := amount.FormatFor(m.Decimal); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	return nil
}

type Parser struct {
	mapping Mapping
}

func NewParser(m Mapping) (*Parser, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if m.DateLayout == "" {
		m.DateLayout = time.DateOnly
	}

	if m.Delimiter == "" {
		m.Delimiter = ","
	}

	return &Parser{mapping: m}, nil
}

func (p *Parser) Name() string { return "generic" }

// Parse expects the header on the first row. Rows with an unparseable date are
// skipped; rows with a bad amount are an error.
func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, err := charset.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma, _ = utf8.DecodeRuneInString(p.mapping.Delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file has no header", ErrInvalidMapping)
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := p.resolve(header)
	if err != nil {
		return nil, err
	}

	format, _ := amount.FormatFor(p.mapping.Decimal)

	var out []transaction.CreateParams

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse(p.mapping.DateLayout, cell(row, cols.date))
		if err != nil {
			continue
		}

		name := cell(row, cols.name)
		if name == "" {
			return nil, fmt.Errorf("line %d: missing name", line)
		}

		cents, err := p.amount(row, cols, format)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		out = append(out, transaction.CreateParams{Date: date, Name: name, Amount: cents})
	}

	return out, nil
}

type columns struct {
	date, name, amount, debit, credit int
}

func (p *Parser) resolve(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	find := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}

		i, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return -1, fmt.Errorf("%w: column %q not in header", ErrInvalidMapping, name)
		}

		return i, nil
	}

	var (
		c   columns
		err error
	)

	for _, f := range []struct {
		dst  *int
		name string
	}{
		{&c.date, p.mapping.DateCol},
		{&c.name, p.mapping.NameCol},
		{&c.amount, p.mapping.AmountCol},
		{&c.debit, p.mapping.DebitCol},
		{&c.credit, p.mapping.CreditCol},
	} {
		if *f.dst, err = find(f.name); err != nil {
			return columns{}, err
		}
	}

	return c, nil
}

func (p *Parser) amount(row []string, c columns, f amount.Format) (int64, error) {
	var cents int64

	if c.amount >= 0 {
		v, err := amount.Parse(cell(row, c.amount), f)
		if err != nil {
			return 0, err
		}

		cents = v
	} else {
		debit, credit := cell(row, c.debit), cell(row, c.credit)

		switch {
		case debit != "":
			v, err := amount.Parse(debit, f)
			if err != nil {
				return 0, err
			}

			cents = -abs(v)
		case credit != "":
			v, err := amount.Parse(credit, f)
			if err != nil {
				return 0, err
			}

			cents = abs(v)
		default:
			return 0, fmt.Errorf("%w: debit and credit are both empty", amount.ErrInvalid)
		}
	}

	if p.mapping.Negate {
		cents = -cents
	}

	return cents, nil
}

func cell(row []string, idx int) string {
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
