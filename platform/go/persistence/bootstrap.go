package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-storefront/database"
)

// BootstrapSchema applies the embedded storefront DDL in a single transaction.
// The DDL is idempotent; the helper backs the CLI bootstrap command and integration tests.
func BootstrapSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}

	return runInTx(ctx, pool, func(tx pgx.Tx) error {
		// Sent without arguments so the multi-statement script runs over the simple protocol.
		if _, err := tx.Exec(ctx, sqlassets.StorefrontSQL); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
		return nil
	})
}
