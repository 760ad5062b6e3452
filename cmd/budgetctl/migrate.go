package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgeteer/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	for _, dir := range []database.Direction{database.Up, database.Down} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: fmt.Sprintf("Migrate %s", dir),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.database()
				if err != nil {
					return err
				}

				if err := database.Migrate(db, dir); err != nil {
					return err
				}

				fmt.Fprintf(a.out, "migrated %s\n", dir)

				return nil
			},
		})
	}

	return cmd
}
