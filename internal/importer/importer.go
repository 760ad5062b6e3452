package importer

import (
	"errors"
	"io"

	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

type Bank string

const (
	BankCGD     Bank = "cgd"
	BankGeneric Bank = "generic"
)

var ErrUnknownBank = errors.New("unknown bank")

// Parser turns one bank export into transaction params with signed cent amounts.
type Parser interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
	Name() string
}
