package persistence

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	parts []string
	args  []any
}

// add appends a predicate; format must contain exactly one %d for the placeholder index.
func (w *whereBuilder) add(format string, value any) {
	w.args = append(w.args, value)
	w.parts = append(w.parts, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) raw(predicate string) {
	w.parts = append(w.parts, predicate)
}

func (w *whereBuilder) sql() string {
	if len(w.parts) == 0 {
		return "TRUE"
	}
	return strings.Join(w.parts, " AND ")
}

// ProductFilter selects products. All set fields are combined with AND.
type ProductFilter struct {
	ID         *uuid.UUID
	TenantID   *uuid.UUID
	OwnerID    *uuid.UUID // products of the tenant owned by this user
	CategoryID *uuid.UUID
	Slug       string
	ActiveOnly bool

	scopeTenantID uuid.UUID
}

// ProductQuery is a filtered, cursor-paginated product listing ordered by creation time, newest first.
// The cursor row itself is included in the page.
type ProductQuery struct {
	Filter ProductFilter
	Limit  int
	Cursor *uuid.UUID
}

func (f ProductFilter) withScope(scope tenant.Scope) ProductFilter {
	if scope.Active() {
		f.scopeTenantID = scope.TenantID()
	}
	return f
}

func (f ProductFilter) build(w *whereBuilder) {
	if f.ID != nil {
		w.add("p.id = $%d", *f.ID)
	}
	if f.TenantID != nil {
		w.add("p.tenant_id = $%d", *f.TenantID)
	}
	if f.scopeTenantID != uuid.Nil {
		w.add("p.tenant_id = $%d", f.scopeTenantID)
	}
	if f.OwnerID != nil {
		w.add("p.tenant_id IN (SELECT t.id FROM "+TenantsTable+" t WHERE t.owner_id = $%d)", *f.OwnerID)
	}
	if f.CategoryID != nil {
		w.add("p.category_id = $%d", *f.CategoryID)
	}
	if f.Slug != "" {
		w.add("p.slug = $%d", f.Slug)
	}
	if f.ActiveOnly {
		w.raw("p.is_active")
	}
}

// matches evaluates the filter in memory; ownerOf returns the owner of a tenant.
func (f ProductFilter) matches(p ProductRecord, ownerOf func(uuid.UUID) uuid.UUID) bool {
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if f.TenantID != nil && p.TenantID != *f.TenantID {
		return false
	}
	if f.scopeTenantID != uuid.Nil && p.TenantID != f.scopeTenantID {
		return false
	}
	if f.OwnerID != nil && ownerOf(p.TenantID) != *f.OwnerID {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Slug != "" && p.Slug != f.Slug {
		return false
	}
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	return true
}

// CategoryFilter selects categories. All set fields are combined with AND.
type CategoryFilter struct {
	ID       *uuid.UUID
	IDs      []uuid.UUID
	TenantID *uuid.UUID
	Slug     string

	scopeTenantID uuid.UUID
}

func (f CategoryFilter) withScope(scope tenant.Scope) CategoryFilter {
	if scope.Active() {
		f.scopeTenantID = scope.TenantID()
	}
	return f
}

func (f CategoryFilter) build(w *whereBuilder) {
	if f.ID != nil {
		w.add("c.id = $%d", *f.ID)
	}
	if f.IDs != nil {
		w.add("c.id = ANY($%d)", f.IDs)
	}
	if f.TenantID != nil {
		w.add("c.tenant_id = $%d", *f.TenantID)
	}
	if f.scopeTenantID != uuid.Nil {
		w.add("c.tenant_id = $%d", f.scopeTenantID)
	}
	if f.Slug != "" {
		w.add("c.slug = $%d", f.Slug)
	}
}

func (f CategoryFilter) matches(c CategoryRecord) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.IDs != nil && !slices.Contains(f.IDs, c.ID) {
		return false
	}
	if f.TenantID != nil && c.TenantID != *f.TenantID {
		return false
	}
	if f.scopeTenantID != uuid.Nil && c.TenantID != f.scopeTenantID {
		return false
	}
	if f.Slug != "" && c.Slug != f.Slug {
		return false
	}
	return true
}

// OrderFilter selects orders. All set fields are combined with AND.
type OrderFilter struct {
	TenantID *uuid.UUID
	UserID   *uuid.UUID
	Status   string

	scopeTenantID uuid.UUID
}

func (f OrderFilter) withScope(scope tenant.Scope) OrderFilter {
	if scope.Active() {
		f.scopeTenantID = scope.TenantID()
	}
	return f
}

func (f OrderFilter) build(w *whereBuilder) {
	if f.TenantID != nil {
		w.add("o.tenant_id = $%d", *f.TenantID)
	}
	if f.scopeTenantID != uuid.Nil {
		w.add("o.tenant_id = $%d", f.scopeTenantID)
	}
	if f.UserID != nil {
		w.add("o.user_id = $%d", *f.UserID)
	}
	if f.Status != "" {
		w.add("o.status = $%d", f.Status)
	}
}

func (f OrderFilter) matches(o OrderRecord) bool {
	if f.TenantID != nil && o.TenantID != *f.TenantID {
		return false
	}
	if f.scopeTenantID != uuid.Nil && o.TenantID != f.scopeTenantID {
		return false
	}
	if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}
