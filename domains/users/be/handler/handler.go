package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/domains/users/be/service"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
)

const (
	registerOperation   = "user.register"
	tokenOperation      = "auth.token"
	getProfileOperation = "user.getProfile"
)

// Handler exposes the users service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the user procedures on r.
func (h *Handler) Routes(r chi.Router, procedures *procedure.Builder) {
	r.Method(http.MethodPost, "/users", procedures.Handle(registerOperation, h.Register))
	r.Method(http.MethodPost, "/auth/token", procedures.Handle(tokenOperation, h.IssueToken))
	r.Method(http.MethodGet, "/me", procedures.Handle(getProfileOperation, h.Profile, procedure.Authenticated))
}

type registeredUser struct {
	ID uuid.UUID `json:"id"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type membershipBody struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	IsActive  bool      `json:"isActive"`
}

type profileBody struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      *string         `json:"name"`
	TenantID  *uuid.UUID      `json:"tenantId"`
	Tenant    *membershipBody `json:"tenant"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.WriteError(w, r, h.logger, registerOperation, err)
		return
	}

	user, err := h.svc.Register(r.Context(), input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, registerOperation, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, registeredUser{ID: user.ID})
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var input service.CredentialsInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.WriteError(w, r, h.logger, tokenOperation, err)
		return
	}

	token, err := h.svc.IssueToken(r.Context(), input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, tokenOperation, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httpapi.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	creds, err := procedure.User(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getProfileOperation, err)
		return
	}

	profile, err := h.svc.Profile(r.Context(), creds.ID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, getProfileOperation, err)
		return
	}

	body := profileBody{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		TenantID:  profile.TenantID,
		CreatedAt: profile.CreatedAt,
	}
	if profile.Tenant != nil {
		body.Tenant = &membershipBody{
			ID:        profile.Tenant.ID,
			Name:      profile.Tenant.Name,
			Subdomain: profile.Tenant.Subdomain,
			IsActive:  profile.Tenant.IsActive,
		}
	}
	httpapi.WriteJSON(w, http.StatusOK, body)
}
