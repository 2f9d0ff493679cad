package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/domains/products/be/service"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

const (
	createOperation     = "product.create"
	getAllOperation     = "product.getAll"
	getByIDOperation    = "product.getById"
	updateOperation     = "product.update"
	deleteOperation     = "product.delete"
	storefrontOperation = "storefront.product"
)

// Handler exposes the products service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("products service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the product procedures on r.
func (h *Handler) Routes(r chi.Router, procedures *procedure.Builder) {
	r.Method(http.MethodPost, "/products", procedures.Handle(createOperation, h.Create, procedure.Authenticated))
	r.Method(http.MethodGet, "/products", procedures.Handle(getAllOperation, h.GetAll))
	r.Method(http.MethodGet, "/products/{id}", procedures.Handle(getByIDOperation, h.GetByID))
	r.Method(http.MethodPatch, "/products/{id}", procedures.Handle(updateOperation, h.Update, procedure.Authenticated))
	r.Method(http.MethodDelete, "/products/{id}", procedures.Handle(deleteOperation, h.Delete, procedure.Authenticated))
}

// StorefrontRoutes registers the public product page reached through the tenant host rewrite.
func (h *Handler) StorefrontRoutes(r chi.Router, procedures *procedure.Builder) {
	r.Method(http.MethodGet, "/shop/{subdomain}/products/{slug}", procedures.Handle(storefrontOperation, h.Storefront))
}

type categoryBody struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type productBody struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenantId"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description"`
	Price       string        `json:"price"`
	Images      []string      `json:"images"`
	Inventory   int32         `json:"inventory"`
	IsActive    bool          `json:"isActive"`
	CategoryID  *uuid.UUID    `json:"categoryId"`
	Category    *categoryBody `json:"category,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type tenantBody struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

type detailBody struct {
	productBody
	Category *categoryBody `json:"category"`
	Tenant   tenantBody    `json:"tenant"`
}

type pageBody struct {
	Products   []productBody `json:"products"`
	NextCursor *uuid.UUID    `json:"nextCursor"`
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

	product, err := h.svc.Create(r.Context(), tenant.ScopeFromContext(r.Context()), creds.ID, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, createOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+product.ID.String())
	httpapi.WriteJSON(w, http.StatusCreated, toProductBody(product))
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	input, err := parseListInput(r)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getAllOperation, err)
		return
	}

	page, err := h.svc.GetAll(r.Context(), tenant.ScopeFromContext(r.Context()), input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getAllOperation, err)
		return
	}

	body := pageBody{Products: make([]productBody, 0, len(page.Products)), NextCursor: page.NextCursor}
	for _, p := range page.Products {
		body.Products = append(body.Products, toProductBody(p))
	}
	httpapi.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getByIDOperation, err)
		return
	}

	detail, err := h.svc.GetByID(r.Context(), tenant.ScopeFromContext(r.Context()), id)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getByIDOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toDetailBody(detail))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}

	product, err := h.svc.Update(r.Context(), tenant.ScopeFromContext(r.Context()), creds.ID, id, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, updateOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toProductBody(product))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, deleteOperation, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, deleteOperation, err)
		return
	}

	if err := h.svc.Delete(r.Context(), tenant.ScopeFromContext(r.Context()), creds.ID, id); err != nil {
		httpapi.WriteError(w, r, h.logger, deleteOperation, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Storefront renders one active product of the shop named in the rewritten path.
func (h *Handler) Storefront(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "subdomain"), chi.URLParam(r, "slug"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, storefrontOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toDetailBody(detail))
}

func parseListInput(r *http.Request) (service.ListInput, error) {
	q := r.URL.Query()
	fields := apperrors.FieldErrors{}

	var input service.ListInput
	if id, err := uuid.Parse(q.Get("tenantId")); err != nil {
		fields.Add("tenantId", "must be a valid UUID")
	} else {
		input.TenantID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			fields.Add("limit", "must be an integer")
		} else {
			input.Limit = limit
		}
	}
	input.Cursor = optionalUUID(q.Get("cursor"), "cursor", fields)
	input.CategoryID = optionalUUID(q.Get("categoryId"), "categoryId", fields)

	if len(fields) > 0 {
		return service.ListInput{}, &apperrors.ValidationError{Fields: fields}
	}
	return input, nil
}

func optionalUUID(raw, field string, fields apperrors.FieldErrors) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fields.Add(field, "must be a valid UUID")
		return nil
	}
	return &id
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperrors.Invalid("id", "must be a valid UUID")
	}
	return id, nil
}

func toProductBody(p service.Product) productBody {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	body := productBody{
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
	}
	if p.Category != nil {
		body.Category = &categoryBody{
			ID:          p.Category.ID,
			TenantID:    p.Category.TenantID,
			Name:        p.Category.Name,
			Slug:        p.Category.Slug,
			Description: p.Category.Description,
			CreatedAt:   p.Category.CreatedAt,
		}
	}
	return body
}

// toDetailBody always emits the category key, null when the product has none.
func toDetailBody(d service.Detail) detailBody {
	product := toProductBody(d.Product)
	return detailBody{
		productBody: product,
		Category:    product.Category,
		Tenant:      tenantBody{Name: d.Tenant.Name, Subdomain: d.Tenant.Subdomain},
	}
}
