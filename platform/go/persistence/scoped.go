package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// stampTenant returns the tenant reference a write must carry under scope.
// An active scope fills an absent reference and rejects a conflicting one.
// Without a scope the caller-supplied reference is kept as is.
func stampTenant(scope tenant.Scope, current uuid.UUID) (uuid.UUID, error) {
	if !scope.Active() {
		if current == uuid.Nil {
			return uuid.Nil, ErrTenantRequired
		}
		return current, nil
	}
	if current == uuid.Nil || current == scope.TenantID() {
		return scope.TenantID(), nil
	}
	return uuid.Nil, ErrTenantMismatch
}

// ScopedProducts confines product reads and writes to a tenant scope.
// With an unscoped Scope operations pass through unmodified.
type ScopedProducts struct {
	backend ProductBackend
	scope   tenant.Scope
}

// Products wraps backend with scope.
func Products(backend ProductBackend, scope tenant.Scope) ScopedProducts {
	return ScopedProducts{backend: backend, scope: scope}
}

// FindFirst returns the newest product matching filter, or ErrNotFound.
func (s ScopedProducts) FindFirst(ctx context.Context, filter ProductFilter) (ProductRecord, error) {
	recs, err := s.backend.FindProducts(ctx, ProductQuery{Filter: filter.withScope(s.scope), Limit: 1})
	if err != nil {
		return ProductRecord{}, err
	}
	if len(recs) == 0 {
		return ProductRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s ScopedProducts) FindMany(ctx context.Context, query ProductQuery) ([]ProductRecord, error) {
	query.Filter = query.Filter.withScope(s.scope)
	return s.backend.FindProducts(ctx, query)
}

func (s ScopedProducts) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	return s.backend.CountProducts(ctx, filter.withScope(s.scope))
}

func (s ScopedProducts) Aggregate(ctx context.Context, filter ProductFilter) (ProductAggregate, error) {
	return s.backend.AggregateProducts(ctx, filter.withScope(s.scope))
}

func (s ScopedProducts) Create(ctx context.Context, rec ProductRecord) (ProductRecord, error) {
	recs, err := s.CreateMany(ctx, []ProductRecord{rec})
	if err != nil {
		return ProductRecord{}, err
	}
	return recs[0], nil
}

// CreateMany stamps every record before any is written; one bad record rejects the batch.
func (s ScopedProducts) CreateMany(ctx context.Context, recs []ProductRecord) ([]ProductRecord, error) {
	stamped := make([]ProductRecord, len(recs))
	for i, rec := range recs {
		tenantID, err := stampTenant(s.scope, rec.TenantID)
		if err != nil {
			return nil, err
		}
		rec.TenantID = tenantID
		stamped[i] = rec
	}
	return s.backend.InsertProducts(ctx, stamped)
}

func (s ScopedProducts) Update(ctx context.Context, filter ProductFilter, update ProductUpdate) (ProductRecord, error) {
	return s.backend.UpdateProduct(ctx, filter.withScope(s.scope), update)
}

func (s ScopedProducts) Delete(ctx context.Context, filter ProductFilter) error {
	return s.backend.DeleteProduct(ctx, filter.withScope(s.scope))
}

// ScopedCategories confines category reads and writes to a tenant scope.
type ScopedCategories struct {
	backend CategoryBackend
	scope   tenant.Scope
}

// Categories wraps backend with scope.
func Categories(backend CategoryBackend, scope tenant.Scope) ScopedCategories {
	return ScopedCategories{backend: backend, scope: scope}
}

func (s ScopedCategories) FindFirst(ctx context.Context, filter CategoryFilter) (CategoryRecord, error) {
	recs, err := s.backend.FindCategories(ctx, filter.withScope(s.scope), 1)
	if err != nil {
		return CategoryRecord{}, err
	}
	if len(recs) == 0 {
		return CategoryRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s ScopedCategories) FindMany(ctx context.Context, filter CategoryFilter) ([]CategoryRecord, error) {
	return s.backend.FindCategories(ctx, filter.withScope(s.scope), 0)
}

func (s ScopedCategories) Count(ctx context.Context, filter CategoryFilter) (int64, error) {
	return s.backend.CountCategories(ctx, filter.withScope(s.scope))
}

func (s ScopedCategories) Create(ctx context.Context, rec CategoryRecord) (CategoryRecord, error) {
	recs, err := s.CreateMany(ctx, []CategoryRecord{rec})
	if err != nil {
		return CategoryRecord{}, err
	}
	return recs[0], nil
}

func (s ScopedCategories) CreateMany(ctx context.Context, recs []CategoryRecord) ([]CategoryRecord, error) {
	stamped := make([]CategoryRecord, len(recs))
	for i, rec := range recs {
		tenantID, err := stampTenant(s.scope, rec.TenantID)
		if err != nil {
			return nil, err
		}
		rec.TenantID = tenantID
		stamped[i] = rec
	}
	return s.backend.InsertCategories(ctx, stamped)
}

// ScopedOrders confines order reads and writes to a tenant scope.
type ScopedOrders struct {
	backend OrderBackend
	scope   tenant.Scope
}

// Orders wraps backend with scope.
func Orders(backend OrderBackend, scope tenant.Scope) ScopedOrders {
	return ScopedOrders{backend: backend, scope: scope}
}

func (s ScopedOrders) FindMany(ctx context.Context, filter OrderFilter, limit int) ([]OrderRecord, error) {
	return s.backend.FindOrders(ctx, filter.withScope(s.scope), limit)
}

func (s ScopedOrders) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	return s.backend.CountOrders(ctx, filter.withScope(s.scope))
}

func (s ScopedOrders) Aggregate(ctx context.Context, filter OrderFilter) (OrderAggregate, error) {
	return s.backend.AggregateOrders(ctx, filter.withScope(s.scope))
}

func (s ScopedOrders) Create(ctx context.Context, rec OrderRecord) (OrderRecord, error) {
	recs, err := s.CreateMany(ctx, []OrderRecord{rec})
	if err != nil {
		return OrderRecord{}, err
	}
	return recs[0], nil
}

func (s ScopedOrders) CreateMany(ctx context.Context, recs []OrderRecord) ([]OrderRecord, error) {
	stamped := make([]OrderRecord, len(recs))
	for i, rec := range recs {
		tenantID, err := stampTenant(s.scope, rec.TenantID)
		if err != nil {
			return nil, err
		}
		rec.TenantID = tenantID
		stamped[i] = rec
	}
	return s.backend.InsertOrders(ctx, stamped)
}
