package persistence

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
)

// Table names of the storefront schema.
const (
	TenantsTable    = "tenants"
	UsersTable      = "users"
	ProductsTable   = "products"
	CategoriesTable = "categories"
	OrdersTable     = "orders"
)

var (
	// ErrNotFound indicates a missing record, or one hidden by a scope or ownership filter.
	ErrNotFound = errors.New("record not found")
	// ErrSubdomainTaken indicates a tenant with the same subdomain already exists.
	ErrSubdomainTaken = errors.New("subdomain already taken")
	// ErrOwnerHasTenant indicates the user already owns a tenant.
	ErrOwnerHasTenant = errors.New("user already owns a shop")
	// ErrEmailTaken indicates a user with the same email already exists.
	ErrEmailTaken = errors.New("user already exists")
	// ErrSlugTaken indicates the slug is already used inside the tenant's namespace.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrTenantMismatch indicates a write carried a tenant reference different from the active scope.
	// It answers 403 if it ever reaches a handler.
	ErrTenantMismatch = apperrors.Forbidden("tenant reference does not match the active tenant")
	// ErrTenantRequired indicates an unscoped write carried no tenant reference.
	ErrTenantRequired = errors.New("tenant reference is required")
)

// TenantRecord is a row of the tenants table.
type TenantRecord struct {
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

// TenantUpdate lists the owner-editable tenant settings. Nil fields are left unchanged.
// The subdomain is immutable.
type TenantUpdate struct {
	Name         *string
	Description  *string
	CustomDomain *string
}

// Empty reports whether the update changes nothing.
func (u TenantUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.CustomDomain == nil
}

// UserRecord is a row of the users table.
type UserRecord struct {
	ID           uuid.UUID
	Email        string
	Name         *string
	PasswordHash string
	TenantID     *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductRecord is a row of the products table.
type ProductRecord struct {
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

// ProductUpdate lists the mutable product fields. Nil fields are left unchanged.
// The owning tenant and slug are not editable.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Images      *[]string
	Inventory   *int32
	IsActive    *bool
	CategoryID  *uuid.UUID
}

// Empty reports whether the update changes nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Images == nil &&
		u.Inventory == nil && u.IsActive == nil && u.CategoryID == nil
}

// ProductAggregate summarizes the products matched by a filter.
type ProductAggregate struct {
	Count          int64
	TotalInventory int64
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	AveragePrice   decimal.Decimal
}

// CategoryRecord is a row of the categories table.
type CategoryRecord struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderRecord is a row of the orders table. Orders are only counted and summed here.
type OrderRecord struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    *uuid.UUID
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
}

// OrderAggregate summarizes the orders matched by a filter.
type OrderAggregate struct {
	Count int64
	Total decimal.Decimal
}

// ErrInvalidReference indicates a write referenced a row that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")
