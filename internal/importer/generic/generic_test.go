package generic_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer/generic"
)

func TestParser_SingleAmount(t *testing.T) {
	csv := `Date,Description,Amount
2024-03-01,Salary,"2,500.00"
2024-03-02,Coffee,-3.20
Total,,2496.80
`

	p, err := generic.NewParser(generic.Mapping{
		DateCol:   "date",
		NameCol:   "Description",
		AmountCol: "AMOUNT",
		Decimal:   ".",
	})
	require.NoError(t, err)

	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "Salary", txs[0].Name)
	assert.Equal(t, int64(250000), txs[0].Amount)
	assert.Equal(t, int64(-320), txs[1].Amount)
}

func TestParser_DebitCredit(t *testing.T) {
	csv := "Data;Movimento;Débito;Crédito\n05/01/2024;Renda;650,00;\n06/01/2024;Reembolso;;12,40\n"

	p, err := generic.NewParser(generic.Mapping{
		DateCol:    "Data",
		NameCol:    "Movimento",
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
		DateLayout: "02/01/2006",
		Delimiter:  ";",
	})
	require.NoError(t, err)

	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, int64(-65000), txs[0].Amount)
	assert.Equal(t, int64(1240), txs[1].Amount)
}

func TestParser_Negate(t *testing.T) {
	p, err := generic.NewParser(generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a", Decimal: ".", Negate: true})
	require.NoError(t, err)

	txs, err := p.Parse(strings.NewReader("d,n,a\n2024-01-01,Card,15.00\n"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(-1500), txs[0].Amount)
}

func TestParser_Errors(t *testing.T) {
	m := generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a", Decimal: "."}

	type testCase struct {
		name  string
		input string
		want  string
	}

	tests := []testCase{
		{"Empty", "", "no header"},
		{"MissingColumn", "d,n,x\n", `column "a" not in header`},
		{"BadAmount", "d,n,a\n2024-01-01,Shop,abc\n", "line 2"},
		{"MissingName", "d,n,a\n2024-01-01,,1.00\n", "missing name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := generic.NewParser(m)
			require.NoError(t, err)

			_, err = p.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapping_Validate(t *testing.T) {
	type testCase struct {
		name    string
		mapping generic.Mapping
		wantErr bool
	}

	tests := []testCase{
		{"Single", generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a"}, false},
		{"Split", generic.Mapping{DateCol: "d", NameCol: "n", DebitCol: "x", CreditCol: "y"}, false},
		{"NoAmount", generic.Mapping{DateCol: "d", NameCol: "n"}, true},
		{"Both", generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a", DebitCol: "x", CreditCol: "y"}, true},
		{"HalfSplit", generic.Mapping{DateCol: "d", NameCol: "n", DebitCol: "x"}, true},
		{"NoDate", generic.Mapping{NameCol: "n", AmountCol: "a"}, true},
		{"LongDelimiter", generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a", Delimiter: ";;"}, true},
		{"BadDecimal", generic.Mapping{DateCol: "d", NameCol: "n", AmountCol: "a", Decimal: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, generic.ErrInvalidMapping)
				return
			}

			assert.NoError(t, err)
		})
	}
}
