package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Repository defines the persistence operations required by the shops service.
// Product and order reads go through the tenant-scoping wrappers.
type Repository interface {
	CreateTenantWithOwner(ctx context.Context, rec persistence.TenantRecord) (persistence.TenantRecord, error)
	GetBySubdomain(ctx context.Context, subdomain string) (persistence.TenantRecord, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (persistence.TenantRecord, error)
	Update(ctx context.Context, id uuid.UUID, update persistence.TenantUpdate) (persistence.TenantRecord, error)
	GetUser(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error)
	ListProducts(ctx context.Context, scope tenant.Scope, query persistence.ProductQuery) ([]persistence.ProductRecord, error)
	AggregateProducts(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) (persistence.ProductAggregate, error)
	CountOrders(ctx context.Context, scope tenant.Scope, filter persistence.OrderFilter) (int64, error)
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

func (r *storeRepository) CreateTenantWithOwner(ctx context.Context, rec persistence.TenantRecord) (persistence.TenantRecord, error) {
	return r.store.CreateTenantWithOwner(ctx, rec)
}

func (r *storeRepository) GetBySubdomain(ctx context.Context, subdomain string) (persistence.TenantRecord, error) {
	return r.store.GetTenantBySubdomain(ctx, subdomain)
}

func (r *storeRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (persistence.TenantRecord, error) {
	return r.store.GetTenantByOwner(ctx, ownerID)
}

func (r *storeRepository) Update(ctx context.Context, id uuid.UUID, update persistence.TenantUpdate) (persistence.TenantRecord, error) {
	return r.store.UpdateTenant(ctx, id, update)
}

func (r *storeRepository) GetUser(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error) {
	return r.store.GetUserByID(ctx, id)
}

func (r *storeRepository) ListProducts(ctx context.Context, scope tenant.Scope, query persistence.ProductQuery) ([]persistence.ProductRecord, error) {
	return persistence.Products(r.store, scope).FindMany(ctx, query)
}

func (r *storeRepository) AggregateProducts(ctx context.Context, scope tenant.Scope, filter persistence.ProductFilter) (persistence.ProductAggregate, error) {
	return persistence.Products(r.store, scope).Aggregate(ctx, filter)
}

func (r *storeRepository) CountOrders(ctx context.Context, scope tenant.Scope, filter persistence.OrderFilter) (int64, error) {
	return persistence.Orders(r.store, scope).Count(ctx, filter)
}
