package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/domains/categories/be/repo"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/validation"
)

// Domain errors. Messages are shown to end users as is.
var (
	ErrNoShop    = apperrors.Forbidden("You must have a shop to create categories")
	ErrSlugTaken = apperrors.Conflict("Category slug already taken")
	ErrOtherShop = apperrors.Forbidden("Categories can only be added to the shop this host serves")
)

// Category is the domain view of a category record.
type Category struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput is the payload of category.create. A missing slug is derived from the name.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Service defines the business operations for categories.
// host is the scope resolved from the request host; when active it confines reads and writes.
type Service interface {
	Create(ctx context.Context, host tenant.Scope, ownerID uuid.UUID, input CreateInput) (Category, error)
	// GetAll lists the categories of a tenant ordered by name.
	GetAll(ctx context.Context, host tenant.Scope, tenantID uuid.UUID) ([]Category, error)
}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the clock used for slug suffixes.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// New constructs a categories Service backed by the provided repository.
func New(r repo.Repository, opts ...Option) Service {
	if r == nil {
		panic("categories repository is required")
	}
	s := &service{repo: r, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, host tenant.Scope, ownerID uuid.UUID, input CreateInput) (Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Category{}, err
	}

	var explicitSlug string
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		normalized, err := persistence.NormalizeSlug(*input.Slug)
		if err != nil {
			return Category{}, apperrors.Invalid("slug", "must contain lowercase letters and numbers separated by single hyphens")
		}
		explicitSlug = normalized
	}

	owned, err := s.repo.OwnedTenant(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Category{}, ErrNoShop
		}
		return Category{}, err
	}
	scope := host
	if !scope.Active() {
		scope = tenant.ScopeFor(owned.ID, owned.Subdomain)
	}

	create := func(slug string) (persistence.CategoryRecord, error) {
		return s.repo.Create(ctx, scope, persistence.CategoryRecord{
			ID:          uuid.New(),
			TenantID:    owned.ID,
			Name:        input.Name,
			Slug:        slug,
			Description: input.Description,
		})
	}

	var record persistence.CategoryRecord
	if explicitSlug != "" {
		record, err = create(explicitSlug)
	} else {
		record, err = persistence.CreateWithUniqueSlug(persistence.DeriveSlug(input.Name), s.now, create)
	}
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrSlugTaken):
			return Category{}, ErrSlugTaken
		case errors.Is(err, persistence.ErrTenantMismatch):
			return Category{}, ErrOtherShop
		}
		return Category{}, err
	}
	return mapCategory(record), nil
}

func (s *service) GetAll(ctx context.Context, host tenant.Scope, tenantID uuid.UUID) ([]Category, error) {
	if tenantID == uuid.Nil {
		return nil, apperrors.Invalid("tenantId", "is required")
	}

	scope := host
	if !scope.Active() {
		scope = tenant.ScopeFor(tenantID, "")
	}
	records, err := s.repo.List(ctx, scope, persistence.CategoryFilter{TenantID: &tenantID})
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(records))
	for _, rec := range records {
		out = append(out, mapCategory(rec))
	}
	return out, nil
}

func mapCategory(rec persistence.CategoryRecord) Category {
	return Category{
		ID:          rec.ID,
		TenantID:    rec.TenantID,
		Name:        rec.Name,
		Slug:        rec.Slug,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
