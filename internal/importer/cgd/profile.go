package cgd

type amountMode int

const (
	amountSingle amountMode = iota // one signed column, "-10,00"
	amountSplit                    // unsigned "Débito" and "Crédito" columns
)

// Profile is the column layout of one CGD export flavour.
type Profile struct {
	Name       string
	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string
	DebitCol   string
	CreditCol  string
}

func (p *Profile) matches(cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func (p *Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles are tried in order; the split debit/credit layout goes first.
var profiles = []Profile{
	{
		Name:       "cartão",
		DateCol:    "Data",
		DescCol:    "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
	},
	{
		Name:       "extrato",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSingle,
		AmountCol:  "Movimento",
	},
	{
		Name:       "conta",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSingle,
		AmountCol:  "Montante",
	},
}
