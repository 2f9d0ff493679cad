package tenant

import "github.com/google/uuid"

// Scope confines data access to one tenant. The zero value is unscoped: root-site operations and
// operations scoped by owner identity instead of host.
type Scope struct {
	tenantID  uuid.UUID
	subdomain string
}

// Unscoped returns a Scope that applies no tenant filter.
func Unscoped() Scope {
	return Scope{}
}

// ScopeFor returns a Scope bound to the tenant id. A nil id yields Unscoped.
func ScopeFor(tenantID uuid.UUID, subdomain string) Scope {
	if tenantID == uuid.Nil {
		return Scope{}
	}
	return Scope{tenantID: tenantID, subdomain: subdomain}
}

// Active reports whether the scope confines access to a tenant.
func (s Scope) Active() bool {
	return s.tenantID != uuid.Nil
}

// TenantID returns the scoped tenant id; uuid.Nil when unscoped.
func (s Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// Subdomain returns the scoped tenant subdomain, if known.
func (s Scope) Subdomain() string {
	return s.subdomain
}
