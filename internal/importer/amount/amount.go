// Package amount parses bank amount strings into signed cents.
package amount

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalid = errors.New("invalid amount")

var (
	hundred  = decimal.NewFromInt(100)
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// Format describes how a bank writes numbers.
type Format struct {
	Decimal  rune // ',' for "1.234,56", '.' for "1,234.56"
	Thousand rune
}

var (
	European = Format{Decimal: ',', Thousand: '.'}
	English  = Format{Decimal: '.', Thousand: ','}
)

// FormatFor returns the format that uses sep as decimal separator.
func FormatFor(sep string) (Format, error) {
	switch sep {
	case "", ",":
		return European, nil
	case ".":
		return English, nil
	}

	return Format{}, fmt.Errorf("unsupported decimal separator %q", sep)
}

// Parse reads s as cents, rounding half away from zero. Currency symbols, spaces and
// a trailing minus ("10,00-") are tolerated.
func Parse(s string, f Format) (int64, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == f.Thousand, r == ' ', r == '\u00a0', r == '€', r == '$', r == '£':
			return -1
		case r == f.Decimal:
			return '.'
		}

		return r
	}, strings.TrimSpace(s))

	if strings.HasSuffix(clean, "-") {
		clean = "-" + strings.TrimSuffix(clean, "-")
	}

	if clean == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	cents := d.Mul(hundred).Round(0)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalid, s)
	}

	return cents.IntPart(), nil
}

// String formats cents with two decimals in the given format, without thousands grouping.
func String(cents int64, f Format) string {
	s := decimal.New(cents, -2).StringFixed(2)
	if f.Decimal != '.' {
		s = strings.Replace(s, ".", string(f.Decimal), 1)
	}

	return s
}
