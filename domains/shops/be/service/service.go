package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zenGate-Global/palmyra-storefront/domains/shops/be/repo"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/validation"
)

// RecentProductsLimit bounds the products listed on a public storefront.
const RecentProductsLimit = 10

// Domain errors. Messages are shown to end users as is.
var (
	ErrSubdomainTaken = apperrors.Conflict("Subdomain already taken")
	ErrAlreadyOwner   = apperrors.Conflict("You already own a shop")
	ErrNotFound       = apperrors.NotFound("Shop not found")
	ErrNotOwner       = apperrors.Forbidden("You do not own this shop")
	ErrUnknownUser    = apperrors.Unauthorized("User no longer exists")
)

// Shop is the domain view of a tenant.
type Shop struct {
	ID           uuid.UUID
	Name         string
	Subdomain    string
	Description  *string
	CustomDomain *string
	IsActive     bool
	OwnerID      uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Owner is the public summary of a shop owner.
type Owner struct {
	Name  *string
	Email string
}

// Product is a catalog entry as listed on a shop page.
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
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicShop is a storefront: the shop, its owner and its most recent active products.
type PublicShop struct {
	Shop
	Owner    Owner
	Products []Product
}

// Stats aggregates the owner's catalog.
type Stats struct {
	TotalInventory int64
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	AveragePrice   decimal.Decimal
}

// OwnerShop is the owner's dashboard view: every product regardless of the active flag plus counts.
type OwnerShop struct {
	Shop
	Products     []Product
	ProductCount int64
	OrderCount   int64
	Stats        Stats
}

// CreateInput is the payload of shop.create.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Subdomain   string  `json:"subdomain" validate:"required,max=63,subdomain,ne=www"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateInput is the payload of shop.update. Nil fields are left unchanged; an empty custom domain clears it.
type UpdateInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	CustomDomain *string `json:"customDomain" validate:"omitempty,fqdn,max=253"`
}

// Service defines the business operations for shops.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Shop, error)
	GetBySubdomain(ctx context.Context, subdomain string) (PublicShop, error)
	// GetMyShop returns nil when the owner has no shop.
	GetMyShop(ctx context.Context, ownerID uuid.UUID) (*OwnerShop, error)
	Update(ctx context.Context, scope tenant.Scope, ownerID uuid.UUID, input UpdateInput) (Shop, error)
	// ResolveTenant maps a host subdomain to the scope of its active tenant.
	ResolveTenant(ctx context.Context, subdomain string) (tenant.Scope, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a shops Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("shops repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Shop, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Subdomain = strings.ToLower(strings.TrimSpace(input.Subdomain))
	if err := validation.Struct(input); err != nil {
		return Shop{}, err
	}

	// Fast path only; the unique indexes decide concurrent creations.
	if _, err := s.repo.GetBySubdomain(ctx, input.Subdomain); err == nil {
		return Shop{}, ErrSubdomainTaken
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return Shop{}, err
	}

	record, err := s.repo.CreateTenantWithOwner(ctx, persistence.TenantRecord{
		ID:          uuid.New(),
		Name:        input.Name,
		Subdomain:   input.Subdomain,
		Description: input.Description,
		IsActive:    true,
		OwnerID:     ownerID,
	})
	if err != nil {
		return Shop{}, mapPersistenceError(err)
	}
	return mapShop(record), nil
}

func (s *service) GetBySubdomain(ctx context.Context, subdomain string) (PublicShop, error) {
	record, err := s.activeTenant(ctx, subdomain)
	if err != nil {
		return PublicShop{}, err
	}

	owner, err := s.repo.GetUser(ctx, record.OwnerID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return PublicShop{}, err
	}

	products, err := s.repo.ListProducts(ctx, tenant.ScopeFor(record.ID, record.Subdomain), persistence.ProductQuery{
		Filter: persistence.ProductFilter{ActiveOnly: true},
		Limit:  RecentProductsLimit,
	})
	if err != nil {
		return PublicShop{}, err
	}

	return PublicShop{
		Shop:     mapShop(record),
		Owner:    Owner{Name: owner.Name, Email: owner.Email},
		Products: mapProducts(products),
	}, nil
}

func (s *service) GetMyShop(ctx context.Context, ownerID uuid.UUID) (*OwnerShop, error) {
	record, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	scope := tenant.ScopeFor(record.ID, record.Subdomain)
	products, err := s.repo.ListProducts(ctx, scope, persistence.ProductQuery{})
	if err != nil {
		return nil, err
	}
	agg, err := s.repo.AggregateProducts(ctx, scope, persistence.ProductFilter{})
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.CountOrders(ctx, scope, persistence.OrderFilter{})
	if err != nil {
		return nil, err
	}

	return &OwnerShop{
		Shop:         mapShop(record),
		Products:     mapProducts(products),
		ProductCount: agg.Count,
		OrderCount:   orders,
		Stats: Stats{
			TotalInventory: agg.TotalInventory,
			MinPrice:       agg.MinPrice,
			MaxPrice:       agg.MaxPrice,
			AveragePrice:   agg.AveragePrice,
		},
	}, nil
}

func (s *service) Update(ctx context.Context, scope tenant.Scope, ownerID uuid.UUID, input UpdateInput) (Shop, error) {
	if !scope.Active() {
		return Shop{}, apperrors.TenantContext("Tenant ID is required for this operation")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	checked := input
	if input.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*input.CustomDomain))
		input.CustomDomain = &domain
		checked.CustomDomain = &domain
		if domain == "" {
			checked.CustomDomain = nil
		}
	}
	if err := validation.Struct(checked); err != nil {
		return Shop{}, err
	}

	update := persistence.TenantUpdate{Name: input.Name, Description: input.Description, CustomDomain: input.CustomDomain}
	if update.Empty() {
		return Shop{}, apperrors.Invalid("body", "at least one field must be provided")
	}

	owned, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Shop{}, ErrNotOwner
		}
		return Shop{}, err
	}
	if owned.ID != scope.TenantID() {
		return Shop{}, ErrNotOwner
	}

	record, err := s.repo.Update(ctx, owned.ID, update)
	if err != nil {
		return Shop{}, mapPersistenceError(err)
	}
	return mapShop(record), nil
}

func (s *service) ResolveTenant(ctx context.Context, subdomain string) (tenant.Scope, error) {
	record, err := s.activeTenant(ctx, subdomain)
	if err != nil {
		return tenant.Scope{}, err
	}
	return tenant.ScopeFor(record.ID, record.Subdomain), nil
}

// activeTenant hides unknown and inactive tenants behind the same not-found error.
func (s *service) activeTenant(ctx context.Context, subdomain string) (persistence.TenantRecord, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return persistence.TenantRecord{}, ErrNotFound
	}
	record, err := s.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return persistence.TenantRecord{}, mapPersistenceError(err)
	}
	if !record.IsActive {
		return persistence.TenantRecord{}, ErrNotFound
	}
	return record, nil
}

func mapShop(record persistence.TenantRecord) Shop {
	return Shop{
		ID:           record.ID,
		Name:         record.Name,
		Subdomain:    record.Subdomain,
		Description:  record.Description,
		CustomDomain: record.CustomDomain,
		IsActive:     record.IsActive,
		OwnerID:      record.OwnerID,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func mapProducts(records []persistence.ProductRecord) []Product {
	out := make([]Product, 0, len(records))
	for _, p := range records {
		out = append(out, Product{
			ID:          p.ID,
			TenantID:    p.TenantID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Price:       p.Price,
			Images:      p.Images,
			Inventory:   p.Inventory,
			IsActive:    p.IsActive,
			CategoryID:  p.CategoryID,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrSubdomainTaken):
		return ErrSubdomainTaken
	case errors.Is(err, persistence.ErrOwnerHasTenant):
		return ErrAlreadyOwner
	case errors.Is(err, persistence.ErrInvalidReference):
		return ErrUnknownUser
	default:
		return err
	}
}
