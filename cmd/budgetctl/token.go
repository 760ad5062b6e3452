package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
)

func newTokenCommand(a *app) *cobra.Command {
	var (
		budgetID string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a budget",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			id, err := uuid.Parse(budgetID)
			if err != nil {
				return fmt.Errorf("invalid budget id: %w", err)
			}

			if ttl == 0 {
				ttl = a.cfg.Auth.TokenTTL
			}

			tokens, err := auth.NewTokens(a.cfg.Auth.Secret, ttl)
			if err != nil {
				return err
			}

			token, err := tokens.Issue(id)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, token)

			return nil
		},
	}

	cmd.Flags().StringVar(&budgetID, "budget", "", "budget id (required)")
	_ = cmd.MarkFlagRequired("budget")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to AUTH_TOKEN_TTL")

	return cmd
}
