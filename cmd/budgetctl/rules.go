package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	categoryStore "github.com/MrJamesThe3rd/budgeteer/internal/category/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/budgeteer/internal/matching/store"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
	txStore "github.com/MrJamesThe3rd/budgeteer/internal/transaction/store"
)

func newRulesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with classification rules",
	}

	var (
		budgetID         string
		onlyUnclassified bool
	)

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Re-run the rule list over stored transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(budgetID)
			if err != nil {
				return fmt.Errorf("invalid budget id: %w", err)
			}

			db, err := a.database()
			if err != nil {
				return err
			}

			cats := category.NewService(categoryStore.New(db))
			svc := matching.NewService(matchingStore.New(db), transaction.NewService(txStore.New(db), cats), cats)

			return runRulesApply(cmd.Context(), svc, id, onlyUnclassified, a.out)
		},
	}

	apply.Flags().StringVar(&budgetID, "budget", "", "budget id (required)")
	_ = apply.MarkFlagRequired("budget")
	apply.Flags().BoolVar(&onlyUnclassified, "only-unclassified", false, "skip categorized or rule-linked transactions")

	cmd.AddCommand(apply)

	return cmd
}

func runRulesApply(ctx context.Context, svc *matching.Service, budgetID uuid.UUID, onlyUnclassified bool, out io.Writer) error {
	filter := transaction.ListFilter{Uncategorized: onlyUnclassified, Unlinked: onlyUnclassified}

	n, err := svc.ApplyAll(ctx, budgetID, filter)
	if err != nil {
		return fmt.Errorf("applying rules: %w", err)
	}

	fmt.Fprintf(out, "updated %d transactions\n", n)

	return nil
}
