package main

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/commit-webhooks/billing"
	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/internal/store"
	userpostgres "github.com/marcelsud/commit-webhooks/user/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var postgresURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres users and billing_references tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if postgresURL == "" {
				cfg, err := config.GetConfig()
				if err != nil {
					return err
				}
				postgresURL = cfg.PostgresURL
			}
			if postgresURL == "" {
				return fmt.Errorf("POSTGRES_URL or --postgres-url is required")
			}

			db, err := userpostgres.Open(postgresURL, 1, 1, 1)
			if err != nil {
				return err
			}
			s := store.FromPostgres(db, nil)
			defer s.Close()

			if err := s.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&postgresURL, "postgres-url", "", "connection string (default POSTGRES_URL)")

	return cmd
}

func addReferenceCmd() *cobra.Command {
	var ref billing.Reference
	var kind string

	cmd := &cobra.Command{
		Use:   "add-reference",
		Short: "Record which account an order or subscription belongs to",
		Long: `Payment callbacks are applied only to accounts they can be correlated with.
The order or subscription is recorded when it is created; this command does the
same by hand, in the store selected by STORE_DRIVER.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == "memory" {
				return fmt.Errorf("STORE_DRIVER=memory keeps nothing between processes")
			}

			ref.Kind = billing.NewKind(kind)
			ref.CreatedAt = time.Now().UTC()
			if err := ref.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StoreTimeout())
			defer cancel()
			s, err := store.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			return saveReference(ctx, cmd, s.Billing, ref)
		},
	}

	cmd.Flags().StringVar(&ref.ID, "id", "", "order or subscription id")
	cmd.Flags().StringVar(&kind, "kind", billing.Order.String(), "order or subscription")
	cmd.Flags().StringVar(&ref.SubjectID, "subject", "", "identity provider subject id of the owner")
	cmd.Flags().StringVar(&ref.Plan, "plan", "", "plan name")
	cmd.Flags().IntVar(&ref.PeriodDays, "period-days", 30, "days of access a captured payment buys")
	cmd.Flags().StringVar(&ref.Receipt, "receipt", "", "merchant receipt")

	return cmd
}

func saveReference(ctx context.Context, cmd *cobra.Command, w billing.Writer, ref billing.Reference) error {
	if err := w.Save(ctx, ref); err != nil {
		return fmt.Errorf("saving reference: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", ref.Kind, ref.ID, ref.SubjectID)
	return nil
}
