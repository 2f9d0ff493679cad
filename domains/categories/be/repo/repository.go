package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Repository defines the persistence operations required by the categories service.
type Repository interface {
	// OwnedTenant returns the tenant owned by the user.
	OwnedTenant(ctx context.Context, ownerID uuid.UUID) (persistence.TenantRecord, error)
	Create(ctx context.Context, scope tenant.Scope, rec persistence.CategoryRecord) (persistence.CategoryRecord, error)
	List(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) ([]persistence.CategoryRecord, error)
}

type storeRepository struct {
	store persistence.Store
}

// New constructs a repository backed by the shared persistence store.
func New(store persistence.Store) Repository {
	if store == nil {
		panic("store is required")
	}
	return &storeRepository{store: store}
}

func (r *storeRepository) OwnedTenant(ctx context.Context, ownerID uuid.UUID) (persistence.TenantRecord, error) {
	return r.store.GetTenantByOwner(ctx, ownerID)
}

func (r *storeRepository) Create(ctx context.Context, scope tenant.Scope, rec persistence.CategoryRecord) (persistence.CategoryRecord, error) {
	return persistence.Categories(r.store, scope).Create(ctx, rec)
}

func (r *storeRepository) List(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) ([]persistence.CategoryRecord, error) {
	return persistence.Categories(r.store, scope).FindMany(ctx, filter)
}
