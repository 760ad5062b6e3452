package importer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer/cgd"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer/generic"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

// Service picks the parser for a bank. Fixed-layout banks are registered up front;
// the generic parser is built per call from the caller's mapping.
type Service struct {
	parsers map[Bank]Parser
}

func NewService(parsers ...Parser) *Service {
	s := &Service{parsers: make(map[Bank]Parser)}

	s.register(cgd.NewParser())

	for _, p := range parsers {
		s.register(p)
	}

	return s
}

func (s *Service) register(p Parser) {
	s.parsers[Bank(strings.ToLower(p.Name()))] = p
}

// Banks lists the accepted bank identifiers.
func (s *Service) Banks() []Bank {
	banks := []Bank{BankGeneric}
	for b := range s.parsers {
		banks = append(banks, b)
	}

	slices.Sort(banks)

	return banks
}

func (s *Service) Import(bank Bank, r io.Reader) ([]transaction.CreateParams, error) {
	p, ok := s.parsers[Bank(strings.ToLower(string(bank)))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, bank)
	}

	return p.Parse(r)
}

func (s *Service) ImportMapped(m generic.Mapping, r io.Reader) ([]transaction.CreateParams, error) {
	p, err := generic.NewParser(m)
	if err != nil {
		return nil, err
	}

	return p.Parse(r)
}
