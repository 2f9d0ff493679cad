package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Repository defines the persistence operations required by the products service.
// Every product and category access takes the scope it runs under.
type Repository interface {
	OwnedTenant(ctx context.Context, ownerID uuid.UUID) (persistence.TenantRecord, error)
	GetTenant(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (persistence.TenantRecord, error)

	FindCategory(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) (persistence.CategoryRecord, error)
	FindCategories(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) ([]persistence.CategoryRecord, error)

	Create(ctx context.Context, scope tenant.Scope, rec persistence.ProductRecord) (persistence.ProductRecord, error)
	FindFirst(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) (persistence.ProductRecord, error)
	FindMany(ctx context.Context, scope tenant.Scope, query persistence.ProductQuery) ([]persistence.ProductRecord, error)
	Update(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter, update persistence.ProductUpdate) (persistence.ProductRecord, error)
	Delete(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) error
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

func (r *storeRepository) GetTenant(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error) {
	return r.store.GetTenantByID(ctx, id)
}

func (r *storeRepository) GetTenantBySubdomain(ctx context.Context, subdomain string) (persistence.TenantRecord, error) {
	return r.store.GetTenantBySubdomain(ctx, subdomain)
}

func (r *storeRepository) FindCategory(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) (persistence.CategoryRecord, error) {
	return persistence.Categories(r.store, scope).FindFirst(ctx, filter)
}

func (r *storeRepository) FindCategories(ctx context.Context, scope tenant.Scope, filter persistence.CategoryFilter) ([]persistence.CategoryRecord, error) {
	return persistence.Categories(r.store, scope).FindMany(ctx, filter)
}

func (r *storeRepository) Create(ctx context.Context, scope tenant.Scope, rec persistence.ProductRecord) (persistence.ProductRecord, error) {
	return persistence.Products(r.store, scope).Create(ctx, rec)
}

func (r *storeRepository) FindFirst(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) (persistence.ProductRecord, error) {
	return persistence.Products(r.store, scope).FindFirst(ctx, filter)
}

func (r *storeRepository) FindMany(ctx context.Context, scope tenant.Scope, query persistence.ProductQuery) ([]persistence.ProductRecord, error) {
	return persistence.Products(r.store, scope).FindMany(ctx, query)
}

func (r *storeRepository) Update(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter, update persistence.ProductUpdate) (persistence.ProductRecord, error) {
	return persistence.Products(r.store, scope).Update(ctx, filter, update)
}

func (r *storeRepository) Delete(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) error {
	return persistence.Products(r.store, scope).Delete(ctx, filter)
}
