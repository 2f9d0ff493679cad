package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
)

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap storefront resources",
		Long:  "Bootstrap storefront resources such as the relational schema.",
	}

	cmd.AddCommand(schemaCommand())
	return cmd
}

func schemaCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "schema",
		Short: "Apply the storefront DDL (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			ctx := cmd.Context()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
				ConnString:      databaseURL,
				ApplicationName: "storefront-cli",
			})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.BootstrapSchema(ctx, pool); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "storefront schema applied")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (defaults to $DATABASE_URL)")
	return c
}
