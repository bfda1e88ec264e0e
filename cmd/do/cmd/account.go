package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aicrypto/predictor/internal/config"
	"github.com/aicrypto/predictor/internal/jobs"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/aicrypto/predictor/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func AccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and repair accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <email>",
		Short: "Print an account's plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				account, err := accountService(database).Account(cmd.Context(), args[0])
				if errors.Is(err, repository.ErrAccountNotFound) {
					upgrade, perr := repository.NewPendingUpgradeRepository(database).ByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
					if perr == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "no account; pending %s upgrade from %s recorded %s\n",
							upgrade.Plan, upgrade.Provider, upgrade.CreatedAt.Format(time.RFC3339))
						return nil
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tcreated %s\n",
					account.ID, account.Email, account.Plan, account.CreatedAt.Format(time.RFC3339))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "upgrade <email>",
		Short: "Apply a pro upgrade by hand, e.g. for a webhook that never arrived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				err := accountService(database).UpgradeToPro(cmd.Context(), args[0], model.ProviderManual)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "upgraded %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func WebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Webhook event bookkeeping",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Forget processed webhook event ids older than EVENT_RETENTION",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
				defer cancel()

				deleted, err := jobs.CleanupWebhookEvents(ctx, repository.NewWebhookEventRepository(database), cfg.EventRetention, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d events\n", deleted)
				return nil
			})
		},
	})

	return cmd
}

func accountService(database *sqlx.DB) *service.AccountService {
	return service.NewAccountService(
		repository.NewAccountRepository(database),
		repository.NewPendingUpgradeRepository(database),
	)
}
