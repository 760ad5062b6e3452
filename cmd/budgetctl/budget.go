package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgeteer/internal/budget"
	"github.com/MrJamesThe3rd/budgeteer/internal/budget/store"
)

func newBudgetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budgets",
	}

	service := func() (*budget.Service, error) {
		db, err := a.database()
		if err != nil {
			return nil, err
		}

		return budget.NewService(store.New(db)), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a budget and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}

			return runBudgetCreate(cmd.Context(), svc, args[0], a.out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service()
			if err != nil {
				return err
			}

			return runBudgetList(cmd.Context(), svc, a.out)
		},
	})

	return cmd
}

func runBudgetCreate(ctx context.Context, svc *budget.Service, name string, out io.Writer) error {
	b, err := svc.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("creating budget: %w", err)
	}

	fmt.Fprintln(out, b.ID)

	return nil
}

func runBudgetList(ctx context.Context, svc *budget.Service, out io.Writer) error {
	budgets, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")

	for _, b := range budgets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.CreatedAt.Format("2006-01-02"))
	}

	return tw.Flush()
}
