package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
)

// Repository defines the persistence operations required by the users service.
type Repository interface {
	Create(ctx context.Context, rec persistence.UserRecord) (persistence.UserRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (persistence.UserRecord, error)
	GetTenant(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error)
}

type storeRepository struct {
	users   persistence.UserBackend
	tenants persistence.TenantBackend
}

// New constructs a repository backed by the shared persistence store.
func New(store persistence.Store) Repository {
	if store == nil {
		panic("store is required")
	}
	return &storeRepository{users: store, tenants: store}
}

func (r *storeRepository) Create(ctx context.Context, rec persistence.UserRecord) (persistence.UserRecord, error) {
	return r.users.CreateUser(ctx, rec)
}

func (r *storeRepository) GetByID(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error) {
	return r.users.GetUserByID(ctx, id)
}

func (r *storeRepository) GetByEmail(ctx context.Context, email string) (persistence.UserRecord, error) {
	return r.users.GetUserByEmail(ctx, email)
}

func (r *storeRepository) GetTenant(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error) {
	return r.tenants.GetTenantByID(ctx, id)
}
