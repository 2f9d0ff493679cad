package persistence

import (
	"context"

	"github.com/google/uuid"
)

// TenantBackend stores tenants. Tenants are never hard-deleted.
type TenantBackend interface {
	// CreateTenantWithOwner inserts the tenant and assigns it to its owner as one atomic unit.
	CreateTenantWithOwner(ctx context.Context, rec TenantRecord) (TenantRecord, error)
	GetTenantByID(ctx context.Context, id uuid.UUID) (TenantRecord, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (TenantRecord, error)
	GetTenantByOwner(ctx context.Context, ownerID uuid.UUID) (TenantRecord, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, update TenantUpdate) (TenantRecord, error)
}

// UserBackend stores users.
type UserBackend interface {
	CreateUser(ctx context.Context, rec UserRecord) (UserRecord, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
}

// ProductBackend stores products. Callers reach it through ScopedProducts.
type ProductBackend interface {
	FindProducts(ctx context.Context, query ProductQuery) ([]ProductRecord, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int64, error)
	AggregateProducts(ctx context.Context, filter ProductFilter) (ProductAggregate, error)
	InsertProducts(ctx context.Context, recs []ProductRecord) ([]ProductRecord, error)
	// UpdateProduct mutates the single product matched by filter; ErrNotFound when none matches.
	UpdateProduct(ctx context.Context, filter ProductFilter, update ProductUpdate) (ProductRecord, error)
	// DeleteProduct removes the single product matched by filter; ErrNotFound when none matches.
	DeleteProduct(ctx context.Context, filter ProductFilter) error
}

// CategoryBackend stores categories. Callers reach it through ScopedCategories.
type CategoryBackend interface {
	FindCategories(ctx context.Context, filter CategoryFilter, limit int) ([]CategoryRecord, error)
	CountCategories(ctx context.Context, filter CategoryFilter) (int64, error)
	InsertCategories(ctx context.Context, recs []CategoryRecord) ([]CategoryRecord, error)
}

// OrderBackend stores orders. Callers reach it through ScopedOrders.
type OrderBackend interface {
	FindOrders(ctx context.Context, filter OrderFilter, limit int) ([]OrderRecord, error)
	CountOrders(ctx context.Context, filter OrderFilter) (int64, error)
	AggregateOrders(ctx context.Context, filter OrderFilter) (OrderAggregate, error)
	InsertOrders(ctx context.Context, recs []OrderRecord) ([]OrderRecord, error)
}

// Store is the full storefront persistence capability.
type Store interface {
	TenantBackend
	UserBackend
	ProductBackend
	CategoryBackend
	OrderBackend
	Ping(ctx context.Context) error
}
