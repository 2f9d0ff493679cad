package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/domains/categories/be/service"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

const (
	createOperation = "category.create"
	getAllOperation = "category.getAll"
)

// Handler exposes the categories service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("categories service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the category procedures on r.
func (h *Handler) Routes(r chi.Router, procedures *procedure.Builder) {
	r.Method(http.MethodPost, "/categories", procedures.Handle(createOperation, h.Create, procedure.Authenticated))
	r.Method(http.MethodGet, "/categories", procedures.Handle(getAllOperation, h.GetAll))
}

type categoryBody struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
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

	category, err := h.svc.Create(r.Context(), tenant.ScopeFromContext(r.Context()), creds.ID, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, createOperation, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCategoryBody(category))
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(r.URL.Query().Get("tenantId"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getAllOperation, apperrors.Invalid("tenantId", "must be a valid UUID"))
		return
	}

	categories, err := h.svc.GetAll(r.Context(), tenant.ScopeFromContext(r.Context()), tenantID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getAllOperation, err)
		return
	}

	out := make([]categoryBody, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryBody(c))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func toCategoryBody(c service.Category) categoryBody {
	return categoryBody{
		ID:          c.ID,
		TenantID:    c.TenantID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}
