package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgeteer/internal/config"
	"github.com/MrJamesThe3rd/budgeteer/internal/database"
)

// app carries what subcommands share. The database is opened on first use so that
// commands like token work without one.
type app struct {
	out io.Writer
	cfg *config.Config
	db  *sql.DB
}

func (a *app) database() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	db, err := database.New(a.cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	a.db = db

	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "budgetctl",
		Short: "Administer a Budgeteer installation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			a.cfg = cfg
			slog.SetDefault(cfg.Logger())

			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	rootCmd.SetOut(out)

	rootCmd.AddCommand(
		newMigrateCommand(a),
		newBudgetCommand(a),
		newTokenCommand(a),
		newRulesCommand(a),
	)

	return rootCmd
}
