package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/domains/shops/be/service"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
	tenantmiddleware "github.com/zenGate-Global/palmyra-storefront/platform/go/tenant/middleware"
)

const (
	createOperation         = "shop.create"
	getBySubdomainOperation = "shop.getBySubdomain"
	getMyShopOperation      = "shop.getMyShop"
	updateOperation         = "shop.update"
	storefrontOperation     = "storefront.shop"
)

// Handler exposes the shops service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("shops service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the shop procedures on r.
func (h *Handler) Routes(r chi.Router, procedures *procedure.Builder) {
	r.Method(http.MethodPost, "/shops", procedures.Handle(createOperation, h.Create, procedure.Authenticated))
	r.Method(http.MethodGet, "/shops/{subdomain}", procedures.Handle(getBySubdomainOperation, h.GetBySubdomain))
	r.Method(http.MethodGet, "/me/shop", procedures.Handle(getMyShopOperation, h.GetMyShop, procedure.Authenticated))
	r.Method(http.MethodPatch, "/shop", procedures.Handle(updateOperation, h.Update, procedure.Authenticated, procedure.TenantScoped))
}

// StorefrontRoutes registers the public storefront page reached through the tenant host rewrite.
func (h *Handler) StorefrontRoutes(r chi.Router, procedures *procedure.Builder) {
	storefront := procedures.Handle(storefrontOperation, h.Storefront)
	r.Method(http.MethodGet, "/shop/{subdomain}", storefront)
	r.Method(http.MethodGet, "/shop/{subdomain}/", storefront)
}

type shopBody struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	Description  *string   `json:"description"`
	CustomDomain *string   `json:"customDomain"`
	IsActive     bool      `json:"isActive"`
	OwnerID      uuid.UUID `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type productBody struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	Price       string     `json:"price"`
	Images      []string   `json:"images"`
	Inventory   int32      `json:"inventory"`
	IsActive    bool       `json:"isActive"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ownerBody struct {
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

type publicShopBody struct {
	shopBody
	Owner    ownerBody     `json:"owner"`
	Products []productBody `json:"products"`
}

type countBody struct {
	Products int64 `json:"products"`
	Orders   int64 `json:"orders"`
}

type statsBody struct {
	TotalInventory int64  `json:"totalInventory"`
	MinPrice       string `json:"minPrice"`
	MaxPrice       string `json:"maxPrice"`
	AveragePrice   string `json:"averagePrice"`
}

type ownerShopBody struct {
	shopBody
	Products []productBody `json:"products"`
	Count    countBody     `json:"_count"`
	Stats    statsBody     `json:"stats"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, createOperation, err)
		return
	}

	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.WriteError(w, r, h.logger, createOperation, err)
		return
	}

	shop, err := h.svc.Create(r.Context(), creds.ID, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, createOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/shops/"+shop.Subdomain)
	httpapi.WriteJSON(w, http.StatusCreated, toShopBody(shop))
}

func (h *Handler) GetBySubdomain(w http.ResponseWriter, r *http.Request) {
	shop, err := h.svc.GetBySubdomain(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getBySubdomainOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toPublicShopBody(shop))
}

func (h *Handler) GetMyShop(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getMyShopOperation, err)
		return
	}

	shop, err := h.svc.GetMyShop(r.Context(), creds.ID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getMyShopOperation, err)
		return
	}
	// A caller without a shop gets a JSON null.
	var body *ownerShopBody
	if shop != nil {
		body = &ownerShopBody{
			shopBody: toShopBody(shop.Shop),
			Products: toProductBodies(shop.Products),
			Count:    countBody{Products: shop.ProductCount, Orders: shop.OrderCount},
			Stats: statsBody{
				TotalInventory: shop.Stats.TotalInventory,
				MinPrice:       shop.Stats.MinPrice.StringFixed(2),
				MaxPrice:       shop.Stats.MaxPrice.StringFixed(2),
				AveragePrice:   shop.Stats.AveragePrice.StringFixed(2),
			},
		}
	}
	httpapi.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}
	scope, err := procedure.Scope(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}

	shop, err := h.svc.Update(r.Context(), scope, creds.ID, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toShopBody(shop))
}

// Storefront renders the public page of the shop named in the rewritten path.
func (h *Handler) Storefront(w http.ResponseWriter, r *http.Request) {
	shop, err := h.svc.GetBySubdomain(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			err = apperrors.NotFound(tenantmiddleware.StoreNotFoundMessage)
		}
		httpapi.WriteError(w, r, h.logger, storefrontOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toPublicShopBody(shop))
}

func toShopBody(shop service.Shop) shopBody {
	return shopBody{
		ID:           shop.ID,
		Name:         shop.Name,
		Subdomain:    shop.Subdomain,
		Description:  shop.Description,
		CustomDomain: shop.CustomDomain,
		IsActive:     shop.IsActive,
		OwnerID:      shop.OwnerID,
		CreatedAt:    shop.CreatedAt,
		UpdatedAt:    shop.UpdatedAt,
	}
}

func toPublicShopBody(shop service.PublicShop) publicShopBody {
	return publicShopBody{
		shopBody: toShopBody(shop.Shop),
		Owner:    ownerBody{Name: shop.Owner.Name, Email: shop.Owner.Email},
		Products: toProductBodies(shop.Products),
	}
}

func toProductBodies(products []service.Product) []productBody {
	out := make([]productBody, 0, len(products))
	for _, p := range products {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		out = append(out, productBody{
			ID:          p.ID,
			TenantID:    p.TenantID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Images:      images,
			Inventory:   p.Inventory,
			IsActive:    p.IsActive,
			CategoryID:  p.CategoryID,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out
}
