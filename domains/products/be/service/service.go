package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zenGate-Global/palmyra-storefront/domains/products/be/repo"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/validation"
)

// Page size bounds of product.getAll.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Domain errors. Messages are shown to end users as is.
var (
	ErrNoShop        = apperrors.Forbidden("You must have a shop to create products")
	ErrNotFound      = apperrors.NotFound("Product not found")
	ErrNotEditable   = apperrors.NotFound("Product not found or you do not have permission to edit it")
	ErrNotDeletable  = apperrors.NotFound("Product not found or you do not have permission to delete it")
	ErrStoreNotFound = apperrors.NotFound("store not found")
	ErrOtherShop     = apperrors.Forbidden("Products can only be added to the shop this host serves")
)

// Category is the summary of a product category.
type Category struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
}

// Product is the domain view of a product record.
type Product struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Slug        string
	Description *string
	Price       decimal.Decimal
	Images      []string
	Inventory   int32
	IsActive    bool
	CategoryID  *uuid.UUID
	Category    *Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TenantSummary names the shop that owns a product.
type TenantSummary struct {
	Name      string
	Subdomain string
}

// Detail is a product with its category and owning shop.
type Detail struct {
	Product
	Tenant TenantSummary
}

// Page is one page of product.getAll. NextCursor is nil on the last page.
type Page struct {
	Products   []Product
	NextCursor *uuid.UUID
}

// CreateInput is the payload of product.create.
type CreateInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,lte=9999999999.99"`
	Images      []string        `json:"images" validate:"omitempty,max=20,dive,required,max=2048"`
	Inventory   *int32          `json:"inventory" validate:"required,gte=0"`
	CategoryID  *uuid.UUID      `json:"categoryId"`
}

// UpdateInput is the payload of product.update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0,lte=9999999999.99"`
	Images      *[]string        `json:"images" validate:"omitempty,max=20,dive,required,max=2048"`
	Inventory   *int32           `json:"inventory" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"isActive"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
}

// ListInput selects a page of a tenant's active products.
type ListInput struct {
	TenantID   uuid.UUID  `json:"tenantId" validate:"required"`
	Limit      int        `json:"limit" validate:"min=1,max=100"`
	Cursor     *uuid.UUID `json:"cursor"`
	CategoryID *uuid.UUID `json:"categoryId"`
}

// Service defines the business operations for products.
// host is the scope resolved from the request host; an active host scope is ANDed into every
// read and stamped on every write, on top of the ownership and tenantId filters.
type Service interface {
	Create(ctx context.Context, host tenant.Scope, ownerID uuid.UUID, input CreateInput) (Product, error)
	GetAll(ctx context.Context, host tenant.Scope, input ListInput) (Page, error)
	GetByID(ctx context.Context, host tenant.Scope, id uuid.UUID) (Detail, error)
	Update(ctx context.Context, host tenant.Scope, ownerID, id uuid.UUID, input UpdateInput) (Product, error)
	Delete(ctx context.Context, host tenant.Scope, ownerID, id uuid.UUID) error
	// GetBySlug returns an active product of an active shop for the storefront page.
	GetBySlug(ctx context.Context, subdomain, slug string) (Detail, error)
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

// New constructs a products Service backed by the provided repository.
func New(r repo.Repository, opts ...Option) Service {
	if r == nil {
		panic("products repository is required")
	}
	s := &service{repo: r, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, host tenant.Scope, ownerID uuid.UUID, input CreateInput) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Price = input.Price.Round(2)
	if err := validation.Struct(input); err != nil {
		return Product{}, err
	}

	owned, err := s.repo.OwnedTenant(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Product{}, ErrNoShop
		}
		return Product{}, err
	}
	category, err := s.categoryIn(ctx, tenant.ScopeFor(owned.ID, owned.Subdomain), input.CategoryID)
	if err != nil {
		return Product{}, err
	}

	// The record names the owner's tenant; on a tenant host the write runs under the host
	// scope, which rejects it when the host serves another shop.
	writeScope := host
	if !writeScope.Active() {
		writeScope = tenant.ScopeFor(owned.ID, owned.Subdomain)
	}
	record, err := persistence.CreateWithUniqueSlug(persistence.DeriveSlug(input.Name), s.now, func(slug string) (persistence.ProductRecord, error) {
		return s.repo.Create(ctx, writeScope, persistence.ProductRecord{
			ID:          uuid.New(),
			TenantID:    owned.ID,
			Name:        input.Name,
			Slug:        slug,
			Description: input.Description,
			Price:       input.Price,
			Images:      input.Images,
			Inventory:   *input.Inventory,
			IsActive:    true,
			CategoryID:  input.CategoryID,
		})
	})
	if err != nil {
		if errors.Is(err, persistence.ErrTenantMismatch) {
			return Product{}, ErrOtherShop
		}
		return Product{}, mapPersistenceError(err, ErrNotFound)
	}

	product := mapProduct(record)
	product.Category = category
	return product, nil
}

func (s *service) GetAll(ctx context.Context, host tenant.Scope, input ListInput) (Page, error) {
	if input.Limit == 0 {
		input.Limit = DefaultPageSize
	}
	if err := validation.Struct(input); err != nil {
		return Page{}, err
	}

	scope := host
	if !scope.Active() {
		scope = tenant.ScopeFor(input.TenantID, "")
	}
	records, err := s.repo.FindMany(ctx, scope, persistence.ProductQuery{
		Filter: persistence.ProductFilter{TenantID: &input.TenantID, CategoryID: input.CategoryID, ActiveOnly: true},
		Limit:  input.Limit + 1,
		Cursor: input.Cursor,
	})
	if err != nil {
		return Page{}, err
	}

	var next *uuid.UUID
	if len(records) > input.Limit {
		id := records[input.Limit].ID
		next = &id
		records = records[:input.Limit]
	}

	products, err := s.withCategories(ctx, scope, records)
	if err != nil {
		return Page{}, err
	}
	return Page{Products: products, NextCursor: next}, nil
}

func (s *service) GetByID(ctx context.Context, host tenant.Scope, id uuid.UUID) (Detail, error) {
	record, err := s.repo.FindFirst(ctx, host, persistence.ProductFilter{ID: &id})
	if err != nil {
		return Detail{}, mapPersistenceError(err, ErrNotFound)
	}

	owner, err := s.repo.GetTenant(ctx, record.TenantID)
	if err != nil {
		return Detail{}, mapPersistenceError(err, ErrNotFound)
	}
	return s.detail(ctx, tenant.ScopeFor(owner.ID, owner.Subdomain), owner, record)
}

func (s *service) Update(ctx context.Context, host tenant.Scope, ownerID, id uuid.UUID, input UpdateInput) (Product, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if input.Price != nil {
		price := input.Price.Round(2)
		input.Price = &price
	}
	if err := validation.Struct(input); err != nil {
		return Product{}, err
	}

	update := persistence.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Images:      input.Images,
		Inventory:   input.Inventory,
		IsActive:    input.IsActive,
		CategoryID:  input.CategoryID,
	}
	if update.Empty() {
		return Product{}, apperrors.Invalid("body", "at least one field must be provided")
	}

	owned := persistence.ProductFilter{ID: &id, OwnerID: &ownerID}
	existing, err := s.repo.FindFirst(ctx, host, owned)
	if err != nil {
		return Product{}, mapPersistenceError(err, ErrNotEditable)
	}

	scope := tenant.ScopeFor(existing.TenantID, "")
	category, err := s.categoryIn(ctx, scope, input.CategoryID)
	if err != nil {
		return Product{}, err
	}

	record, err := s.repo.Update(ctx, scope, owned, update)
	if err != nil {
		return Product{}, mapPersistenceError(err, ErrNotEditable)
	}

	product := mapProduct(record)
	product.Category = category
	return product, nil
}

func (s *service) Delete(ctx context.Context, host tenant.Scope, ownerID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, host, persistence.ProductFilter{ID: &id, OwnerID: &ownerID})
	if err != nil {
		return mapPersistenceError(err, ErrNotDeletable)
	}
	return nil
}

func (s *service) GetBySlug(ctx context.Context, subdomain, slug string) (Detail, error) {
	shop, err := s.repo.GetTenantBySubdomain(ctx, strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return Detail{}, mapPersistenceError(err, ErrStoreNotFound)
	}
	if !shop.IsActive {
		return Detail{}, ErrStoreNotFound
	}

	scope := tenant.ScopeFor(shop.ID, shop.Subdomain)
	record, err := s.repo.FindFirst(ctx, scope, persistence.ProductFilter{Slug: strings.ToLower(slug), ActiveOnly: true})
	if err != nil {
		return Detail{}, mapPersistenceError(err, ErrNotFound)
	}
	return s.detail(ctx, scope, shop, record)
}

func (s *service) detail(ctx context.Context, scope tenant.Scope, shop persistence.TenantRecord, record persistence.ProductRecord) (Detail, error) {
	products, err := s.withCategories(ctx, scope, []persistence.ProductRecord{record})
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Product: products[0],
		Tenant:  TenantSummary{Name: shop.Name, Subdomain: shop.Subdomain},
	}, nil
}

// categoryIn checks that the category belongs to the scoped tenant. A nil id is accepted.
func (s *service) categoryIn(ctx context.Context, scope tenant.Scope, id *uuid.UUID) (*Category, error) {
	if id == nil {
		return nil, nil
	}
	record, err := s.repo.FindCategory(ctx, scope, persistence.CategoryFilter{ID: id})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, apperrors.Invalid("categoryId", "category does not exist in this shop")
		}
		return nil, err
	}
	category := mapCategory(record)
	return &category, nil
}

// withCategories maps records and attaches their categories with a single lookup.
func (s *service) withCategories(ctx context.Context, scope tenant.Scope, records []persistence.ProductRecord) ([]Product, error) {
	ids := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		if rec.CategoryID == nil {
			continue
		}
		if _, ok := seen[*rec.CategoryID]; ok {
			continue
		}
		seen[*rec.CategoryID] = struct{}{}
		ids = append(ids, *rec.CategoryID)
	}

	categories := make(map[uuid.UUID]Category, len(ids))
	if len(ids) > 0 {
		found, err := s.repo.FindCategories(ctx, scope, persistence.CategoryFilter{IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			categories[c.ID] = mapCategory(c)
		}
	}

	out := make([]Product, 0, len(records))
	for _, rec := range records {
		product := mapProduct(rec)
		if rec.CategoryID != nil {
			if c, ok := categories[*rec.CategoryID]; ok {
				product.Category = &c
			}
		}
		out = append(out, product)
	}
	return out, nil
}

func mapProduct(rec persistence.ProductRecord) Product {
	return Product{
		ID:          rec.ID,
		TenantID:    rec.TenantID,
		Name:        rec.Name,
		Slug:        rec.Slug,
		Description: rec.Description,
		Price:       rec.Price,
		Images:      rec.Images,
		Inventory:   rec.Inventory,
		IsActive:    rec.IsActive,
		CategoryID:  rec.CategoryID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func mapCategory(rec persistence.CategoryRecord) Category {
	return Category{
		ID:          rec.ID,
		TenantID:    rec.TenantID,
		Name:        rec.Name,
		Slug:        rec.Slug,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
	}
}

// mapPersistenceError converts store sentinels; notFound is the message for missing or hidden rows.
func mapPersistenceError(err error, notFound *apperrors.Error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return notFound
	case errors.Is(err, persistence.ErrInvalidReference):
		return apperrors.Invalid("categoryId", "category does not exist in this shop")
	case errors.Is(err, persistence.ErrTenantMismatch):
		return apperrors.Forbidden("Product belongs to another shop")
	default:
		return err
	}
}
