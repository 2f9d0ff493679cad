package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-storefront/domains/products/be/repo"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type fixture struct {
	store *persistence.MemoryStore
	svc   Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := persistence.NewMemoryStore(steppingClock())
	svc := New(repo.New(store), WithClock(func() time.Time { return time.UnixMilli(1700000004321) }))
	return fixture{store: store, svc: svc}
}

// owner registers a user owning a shop and returns both ids.
func (f fixture) owner(t *testing.T, subdomain string) (uuid.UUID, uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	user, err := f.store.CreateUser(ctx, persistence.UserRecord{ID: uuid.New(), Email: subdomain + "@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	shop, err := f.store.CreateTenantWithOwner(ctx, persistence.TenantRecord{ID: uuid.New(), Name: subdomain, Subdomain: subdomain, IsActive: true, OwnerID: user.ID})
	require.NoError(t, err)
	return user.ID, shop.ID
}

func inventory(n int32) *int32 { return &n }

func mug(name string) CreateInput {
	return CreateInput{Name: name, Price: decimal.RequireFromString("9.99"), Inventory: inventory(5)}
}

func TestCreateDerivesSlugAndStampsTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ownerID, tenantID := f.owner(t, "acme")

	product, err := f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, mug("Blue Mug"))
	require.NoError(t, err)
	require.Equal(t, "blue-mug", product.Slug)
	require.Equal(t, tenantID, product.TenantID)
	require.True(t, product.IsActive)
	require.Equal(t, "9.99", product.Price.StringFixed(2))

	again, err := f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, mug("Blue  Mug"))
	require.NoError(t, err)
	require.Equal(t, "blue-mug-4321", again.Slug)

	otherID, otherTenant := f.owner(t, "other")
	foreign, err := f.svc.Create(context.Background(), tenant.Unscoped(), otherID, mug("Blue Mug"))
	require.NoError(t, err)
	require.Equal(t, "blue-mug", foreign.Slug)
	require.Equal(t, otherTenant, foreign.TenantID)
}

func TestCreateRequiresShop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user, err := f.store.CreateUser(context.Background(), persistence.UserRecord{ID: uuid.New(), Email: "nobody@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), tenant.Unscoped(), user.ID, mug("Blue Mug"))
	require.ErrorIs(t, err, ErrNoShop)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input CreateInput
		field string
	}{
		{name: "zero price", input: CreateInput{Name: "Mug", Inventory: inventory(1)}, field: "price"},
		{name: "negative price", input: CreateInput{Name: "Mug", Price: decimal.RequireFromString("-1"), Inventory: inventory(1)}, field: "price"},
		{name: "price rounds to zero", input: CreateInput{Name: "Mug", Price: decimal.RequireFromString("0.001"), Inventory: inventory(1)}, field: "price"},
		{name: "missing inventory", input: CreateInput{Name: "Mug", Price: decimal.NewFromInt(1)}, field: "inventory"},
		{name: "negative inventory", input: CreateInput{Name: "Mug", Price: decimal.NewFromInt(1), Inventory: inventory(-1)}, field: "inventory"},
		{name: "blank name", input: CreateInput{Name: "  ", Price: decimal.NewFromInt(1), Inventory: inventory(1)}, field: "name"},
		{name: "empty image", input: CreateInput{Name: "Mug", Price: decimal.NewFromInt(1), Inventory: inventory(1), Images: []string{""}}, field: "images[0]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := New(&mockRepository{})
			_, err := svc.Create(context.Background(), tenant.Unscoped(), uuid.New(), tc.input)

			var validationErr *apperrors.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			require.Contains(t, validationErr.Fields, tc.field)
		})
	}
}

func TestCreateRejectsForeignCategory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ownerID, tenantID := f.owner(t, "acme")
	_, otherTenant := f.owner(t, "other")

	foreign, err := persistence.Categories(f.store, tenant.ScopeFor(otherTenant, "other")).Create(context.Background(), persistence.CategoryRecord{Name: "Tools", Slug: "tools"})
	require.NoError(t, err)
	own, err := persistence.Categories(f.store, tenant.ScopeFor(tenantID, "acme")).Create(context.Background(), persistence.CategoryRecord{Name: "Mugs", Slug: "mugs"})
	require.NoError(t, err)

	input := mug("Blue Mug")
	input.CategoryID = &foreign.ID
	_, err = f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, input)
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	input.CategoryID = &own.ID
	product, err := f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, input)
	require.NoError(t, err)
	require.NotNil(t, product.Category)
	require.Equal(t, "mugs", product.Category.Slug)
}

func TestGetAllPaginates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ownerID, tenantID := f.owner(t, "acme")
	for _, name := range []string{"First", "Second", "Third"} {
		_, err := f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, mug(name))
		require.NoError(t, err)
	}

	page, err := f.svc.GetAll(context.Background(), tenant.Unscoped(), ListInput{TenantID: tenantID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	require.Equal(t, "Third", page.Products[0].Name)
	require.Equal(t, "Second", page.Products[1].Name)
	require.NotNil(t, page.NextCursor)

	next, err := f.svc.GetAll(context.Background(), tenant.Unscoped(), ListInput{TenantID: tenantID, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Products, 1)
	require.Equal(t, "First", next.Products[0].Name)
	require.Nil(t, next.NextCursor)

	unknown := uuid.New()
	empty, err := f.svc.GetAll(context.Background(), tenant.Unscoped(), ListInput{TenantID: tenantID, Cursor: &unknown})
	require.NoError(t, err)
	require.Empty(t, empty.Products)
}

func TestGetAllFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ownerID, tenantID := f.owner(t, "acme")
	otherID, _ := f.owner(t, "other")
	ctx := context.Background()

	category, err := persistence.Categories(f.store, tenant.ScopeFor(tenantID, "acme")).Create(ctx, persistence.CategoryRecord{Name: "Mugs", Slug: "mugs"})
	require.NoError(t, err)

	inCategory := mug("Blue Mug")
	inCategory.CategoryID = &category.ID
	_, err = f.svc.Create(ctx, tenant.Unscoped(), ownerID, inCategory)
	require.NoError(t, err)

	hidden, err := f.svc.Create(ctx, tenant.Unscoped(), ownerID, mug("Hidden"))
	require.NoError(t, err)
	inactive := false
	_, err = f.svc.Update(ctx, tenant.Unscoped(), ownerID, hidden.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, tenant.Unscoped(), otherID, mug("Foreign"))
	require.NoError(t, err)

	page, err := f.svc.GetAll(ctx, tenant.Unscoped(), ListInput{TenantID: tenantID})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Equal(t, "Blue Mug", page.Products[0].Name)
	require.NotNil(t, page.Products[0].Category)

	page, err = f.svc.GetAll(ctx, tenant.Unscoped(), ListInput{TenantID: tenantID, CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	for _, limit := range []int{-1, 101} {
		_, err = f.svc.GetAll(ctx, tenant.Unscoped(), ListInput{TenantID: tenantID, Limit: limit})
		require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "limit %d", limit)
	}
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ownerID, _ := f.owner(t, "acme")
	created, err := f.svc.Create(context.Background(), tenant.Unscoped(), ownerID, mug("Blue Mug"))
	require.NoError(t, err)

	detail, err := f.svc.GetByID(context.Background(), tenant.Unscoped(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Blue Mug", detail.Name)
	require.Equal(t, TenantSummary{Name: "acme", Subdomain: "acme"}, detail.Tenant)
	require.Nil(t, detail.Category)

	_, err = f.svc.GetByID(context.Background(), tenant.Unscoped(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteRequireOwnership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ownerID, _ := f.owner(t, "acme")
	intruderID, _ := f.owner(t, "other")

	product, err := f.svc.Create(ctx, tenant.Unscoped(), ownerID, mug("Blue Mug"))
	require.NoError(t, err)

	name := "Stolen"
	_, err = f.svc.Update(ctx, tenant.Unscoped(), intruderID, product.ID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrNotEditable)

	err = f.svc.Delete(ctx, tenant.Unscoped(), intruderID, product.ID)
	require.ErrorIs(t, err, ErrNotDeletable)

	price := decimal.RequireFromString("12.345")
	updated, err := f.svc.Update(ctx, tenant.Unscoped(), ownerID, product.ID, UpdateInput{Price: &price})
	require.NoError(t, err)
	require.Equal(t, "12.35", updated.Price.StringFixed(2))
	require.Equal(t, "blue-mug", updated.Slug)

	_, err = f.svc.Update(ctx, tenant.Unscoped(), ownerID, product.ID, UpdateInput{})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, f.svc.Delete(ctx, tenant.Unscoped(), ownerID, product.ID))
	_, err = f.svc.GetByID(ctx, tenant.Unscoped(), product.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetBySlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ownerID, _ := f.owner(t, "acme")
	_, err := f.svc.Create(ctx, tenant.Unscoped(), ownerID, mug("Blue Mug"))
	require.NoError(t, err)

	detail, err := f.svc.GetBySlug(ctx, "acme", "blue-mug")
	require.NoError(t, err)
	require.Equal(t, "acme", detail.Tenant.Subdomain)

	_, err = f.svc.GetBySlug(ctx, "acme", "red-mug")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetBySlug(ctx, "ghost", "blue-mug")
	require.ErrorIs(t, err, ErrStoreNotFound)
}

func TestHostScopeConfinesProductProcedures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	acmeOwner, acmeID := f.owner(t, "acme")
	globexOwner, globexID := f.owner(t, "globex")
	acmeHost := tenant.ScopeFor(acmeID, "acme")

	own, err := f.svc.Create(ctx, acmeHost, acmeOwner, mug("Blue Mug"))
	require.NoError(t, err)
	require.Equal(t, acmeID, own.TenantID)
	foreign, err := f.svc.Create(ctx, tenant.Unscoped(), globexOwner, mug("Red Mug"))
	require.NoError(t, err)

	t.Run("listing another tenant yields an empty page", func(t *testing.T) {
		page, err := f.svc.GetAll(ctx, acmeHost, ListInput{TenantID: globexID})
		require.NoError(t, err)
		require.Empty(t, page.Products)

		page, err = f.svc.GetAll(ctx, acmeHost, ListInput{TenantID: acmeID})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		for _, p := range page.Products {
			require.Equal(t, acmeID, p.TenantID)
		}
	})

	t.Run("foreign product is not found", func(t *testing.T) {
		_, err := f.svc.GetByID(ctx, acmeHost, foreign.ID)
		require.ErrorIs(t, err, ErrNotFound)

		detail, err := f.svc.GetByID(ctx, acmeHost, own.ID)
		require.NoError(t, err)
		require.Equal(t, "acme", detail.Tenant.Subdomain)
	})

	t.Run("create for another shop is forbidden", func(t *testing.T) {
		_, err := f.svc.Create(ctx, acmeHost, globexOwner, mug("Green Mug"))
		require.ErrorIs(t, err, ErrOtherShop)
		require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("owner cannot reach own product through another host", func(t *testing.T) {
		name := "Renamed"
		_, err := f.svc.Update(ctx, acmeHost, globexOwner, foreign.ID, UpdateInput{Name: &name})
		require.ErrorIs(t, err, ErrNotEditable)
		require.ErrorIs(t, f.svc.Delete(ctx, acmeHost, globexOwner, foreign.ID), ErrNotDeletable)
	})
}

type mockRepository struct {
	repo.Repository
}
