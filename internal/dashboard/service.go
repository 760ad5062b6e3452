package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/period"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=dashboard
type TransactionLister interface {
	List(ctx context.Context, budgetID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type CategoryLister interface {
	List(ctx context.Context, budgetID uuid.UUID) ([]*category.Category, error)
}

// ErrPageOutOfRange is returned for history pages beyond the streak look-back.
var ErrPageOutOfRange = errors.New("history page out of range")

type Options struct {
	PageSize       int
	MaxStreakPages int
}

type Service struct {
	txs  TransactionLister
	cats CategoryLister
	opts Options
}

func NewService(txs TransactionLister, cats CategoryLister, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}

	if opts.MaxStreakPages <= 0 {
		opts.MaxStreakPages = 20
	}

	return &Service{txs: txs, cats: cats, opts: opts}
}

type Overview struct {
	Period    period.Period
	Summary   Summary
	Breakdown Breakdown
	Streak    Streak
}

// Overview summarizes p, breaks its spending down by category and counts the streak of
// completed periods before it. The three inputs are fetched concurrently.
func (s *Service) Overview(ctx context.Context, budgetID uuid.UUID, p period.Period) (*Overview, error) {
	var (
		txs    []*transaction.Transaction
		cats   []*category.Category
		streak Streak
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		txs, err = s.transactionsIn(gctx, budgetID, p.Begin, p.End)

		return err
	})

	g.Go(func() error {
		var err error

		cats, err = s.cats.List(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		streak, err = s.Streak(gctx, budgetID, p)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{
		Period:    p,
		Summary:   Summarize(txs, p),
		Breakdown: BreakdownOf(txs, cats, p),
		Streak:    streak,
	}, nil
}

// Streak pulls history pages until the counter stops or the page limit is reached.
func (s *Service) Streak(ctx context.Context, budgetID uuid.UUID, current period.Period) (Streak, error) {
	counter := NewStreakCounter(current.Mode)

	for page := 0; page < s.opts.MaxStreakPages; page++ {
		summaries, err := s.HistoryPage(ctx, budgetID, current, page)
		if err != nil {
			return Streak{}, err
		}

		if !counter.Feed(summaries) {
			break
		}
	}

	return counter.Streak(), nil
}

// HistoryPage summarizes one page of completed periods before current, newest first.
// Pages run from 0 to MaxStreakPages-1.
func (s *Service) HistoryPage(ctx context.Context, budgetID uuid.UUID, current period.Period, page int) ([]Summary, error) {
	if page < 0 || page >= s.opts.MaxStreakPages {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	periods := History(current, page, s.opts.PageSize)
	if len(periods) == 0 {
		return nil, nil
	}

	oldest, newest := periods[len(periods)-1], periods[0]

	txs, err := s.transactionsIn(ctx, budgetID, oldest.Begin, newest.End)
	if err != nil {
		return nil, err
	}

	return SummarizeEach(txs, periods), nil
}

func (s *Service) transactionsIn(ctx context.Context, budgetID uuid.UUID, begin, end time.Time) ([]*transaction.Transaction, error) {
	txs, err := s.txs.List(ctx, budgetID, transaction.ListFilter{StartDate: &begin, EndDate: &end})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return txs, nil
}
