package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-storefront/domains/shops/be/service"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

type mockService struct {
	createFn         func(ctx context.Context, ownerID uuid.UUID, input service.CreateInput) (service.Shop, error)
	getBySubdomainFn func(ctx context.Context, subdomain string) (service.PublicShop, error)
	getMyShopFn      func(ctx context.Context, ownerID uuid.UUID) (*service.OwnerShop, error)
	updateFn         func(ctx context.Context, scope tenant.Scope, ownerID uuid.UUID, input service.UpdateInput) (service.Shop, error)
}

func (m *mockService) Create(ctx context.Context, ownerID uuid.UUID, input service.CreateInput) (service.Shop, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, ownerID, input)
}

func (m *mockService) GetBySubdomain(ctx context.Context, subdomain string) (service.PublicShop, error) {
	if m.getBySubdomainFn == nil {
		panic("getBySubdomainFn not configured")
	}
	return m.getBySubdomainFn(ctx, subdomain)
}

func (m *mockService) GetMyShop(ctx context.Context, ownerID uuid.UUID) (*service.OwnerShop, error) {
	if m.getMyShopFn == nil {
		panic("getMyShopFn not configured")
	}
	return m.getMyShopFn(ctx, ownerID)
}

func (m *mockService) Update(ctx context.Context, scope tenant.Scope, ownerID uuid.UUID, input service.UpdateInput) (service.Shop, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, scope, ownerID, input)
}

func (m *mockService) ResolveTenant(context.Context, string) (tenant.Scope, error) {
	panic("ResolveTenant not expected")
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()

	logger := zaptest.NewLogger(t)
	procedures := procedure.NewBuilder(logger)
	h := New(svc, logger)

	r := chi.NewRouter()
	h.Routes(r, procedures)
	h.StorefrontRoutes(r, procedures)
	return r
}

func withUser(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(platformauth.WithUser(req.Context(), &platformauth.UserCredentials{ID: id}))
}

func TestCreateShop(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	svc := &mockService{createFn: func(_ context.Context, id uuid.UUID, input service.CreateInput) (service.Shop, error) {
		require.Equal(t, ownerID, id)
		require.Equal(t, "acme", input.Subdomain)
		return service.Shop{ID: uuid.New(), Name: input.Name, Subdomain: input.Subdomain, IsActive: true, OwnerID: id}, nil
	}}
	router := newRouter(t, svc)

	body := `{"name":"Acme","subdomain":"acme"}`

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/shops", strings.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/shops", strings.NewReader(body)), ownerID))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/api/v1/shops/acme", rr.Header().Get("Location"))

	var got shopBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "Acme", got.Name)
	require.Nil(t, got.CustomDomain)
}

func TestCreateShopConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{createFn: func(context.Context, uuid.UUID, service.CreateInput) (service.Shop, error) {
		return service.Shop{}, service.ErrSubdomainTaken
	}}

	rr := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/shops", strings.NewReader(`{"name":"Acme","subdomain":"acme"}`)), uuid.New()))

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "Subdomain already taken")
}

func TestGetBySubdomain(t *testing.T) {
	t.Parallel()

	name := "Ann"
	svc := &mockService{getBySubdomainFn: func(_ context.Context, subdomain string) (service.PublicShop, error) {
		if subdomain != "acme" {
			return service.PublicShop{}, service.ErrNotFound
		}
		return service.PublicShop{
			Shop:  service.Shop{ID: uuid.New(), Name: "Acme", Subdomain: "acme", IsActive: true},
			Owner: service.Owner{Name: &name, Email: "ann@example.com"},
			Products: []service.Product{
				{ID: uuid.New(), Name: "Blue Mug", Slug: "blue-mug", Price: decimal.RequireFromString("9.9"), IsActive: true},
			},
		}, nil
	}}
	router := newRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shops/acme", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Name  string `json:"name"`
		Owner struct {
			Email string `json:"email"`
		} `json:"owner"`
		Products []struct {
			Price  string   `json:"price"`
			Images []string `json:"images"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "Acme", got.Name)
	require.Equal(t, "ann@example.com", got.Owner.Email)
	require.Len(t, got.Products, 1)
	require.Equal(t, "9.90", got.Products[0].Price)
	require.NotNil(t, got.Products[0].Images)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shops/ghost", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "Shop not found")
}

func TestStorefrontPage(t *testing.T) {
	t.Parallel()

	svc := &mockService{getBySubdomainFn: func(_ context.Context, subdomain string) (service.PublicShop, error) {
		if subdomain != "acme" {
			return service.PublicShop{}, service.ErrNotFound
		}
		return service.PublicShop{Shop: service.Shop{Name: "Acme", Subdomain: "acme"}}, nil
	}}
	router := newRouter(t, svc)

	for _, path := range []string{"/shop/acme", "/shop/acme/"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shop/ghost/", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "store not found")
}

func TestGetMyShop(t *testing.T) {
	t.Parallel()

	withShop := uuid.New()
	svc := &mockService{getMyShopFn: func(_ context.Context, ownerID uuid.UUID) (*service.OwnerShop, error) {
		if ownerID != withShop {
			return nil, nil
		}
		return &service.OwnerShop{
			Shop:         service.Shop{Name: "Acme", Subdomain: "acme"},
			ProductCount: 2,
			OrderCount:   1,
			Stats:        service.Stats{TotalInventory: 6, MinPrice: decimal.RequireFromString("9.99"), MaxPrice: decimal.RequireFromString("20"), AveragePrice: decimal.RequireFromString("15")},
		}, nil
	}}
	router := newRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/me/shop", nil), uuid.New()))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "null", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/me/shop", nil), withShop))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Products []json.RawMessage `json:"products"`
		Count    countBody         `json:"_count"`
		Stats    statsBody         `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.Products)
	require.Equal(t, countBody{Products: 2, Orders: 1}, got.Count)
	require.Equal(t, "20.00", got.Stats.MaxPrice)
	require.Equal(t, "15.00", got.Stats.AveragePrice)
}

func TestUpdateShop(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	scope := tenant.ScopeFor(uuid.New(), "acme")
	svc := &mockService{updateFn: func(_ context.Context, got tenant.Scope, id uuid.UUID, input service.UpdateInput) (service.Shop, error) {
		require.Equal(t, scope, got)
		require.Equal(t, ownerID, id)
		return service.Shop{Name: *input.Name, Subdomain: "acme"}, nil
	}}
	router := newRouter(t, svc)

	t.Run("without tenant host", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPatch, "/shop", strings.NewReader(`{"name":"New"}`)), ownerID))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), procedure.TenantRequiredMessage)
	})

	t.Run("owner on tenant host", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodPatch, "/shop", strings.NewReader(`{"name":"New"}`)), ownerID)
		req = req.WithContext(tenant.WithScope(req.Context(), scope))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), `"name":"New"`)
	})
}

func TestUpdateShopForbidden(t *testing.T) {
	t.Parallel()

	svc := &mockService{updateFn: func(context.Context, tenant.Scope, uuid.UUID, service.UpdateInput) (service.Shop, error) {
		return service.Shop{}, service.ErrNotOwner
	}}

	req := withUser(httptest.NewRequest(http.MethodPatch, "/shop", strings.NewReader(`{"name":"New"}`)), uuid.New())
	req = req.WithContext(tenant.WithScope(req.Context(), tenant.ScopeFor(uuid.New(), "acme")))
	rr := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}
