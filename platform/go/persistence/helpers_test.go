package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, store Store, subdomain string) TenantRecord {
	t.Helper()

	ctx := context.Background()
	owner, err := store.CreateUser(ctx, UserRecord{
		ID:           uuid.New(),
		Email:        subdomain + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	rec, err := store.CreateTenantWithOwner(ctx, TenantRecord{
		ID:        uuid.New(),
		Name:      subdomain,
		Subdomain: subdomain,
		IsActive:  true,
		OwnerID:   owner.ID,
	})
	require.NoError(t, err)
	return rec
}

func newProduct(tenantID uuid.UUID, slug string) ProductRecord {
	return ProductRecord{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      slug,
		Slug:      slug,
		Price:     decimal.RequireFromString("9.99"),
		Inventory: 5,
		IsActive:  true,
	}
}
