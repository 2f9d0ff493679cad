package tenant

import "context"

// Context is the tenant identity derived from the request host, or its absence.
// It is produced once per request by the host routing middleware and read at the procedure boundary.
type Context struct {
	Subdomain string
}

// Present reports whether the request targets a tenant.
func (c Context) Present() bool {
	return c.Subdomain != ""
}

type ctxKey string

const (
	contextKey ctxKey = "STOREFRONT_TENANT_CONTEXT"
	scopeKey   ctxKey = "STOREFRONT_TENANT_SCOPE"
)

// WithContext returns a derived context carrying the tenant Context.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey, tc)
}

// FromContext returns the tenant Context; the zero value (no tenant) when absent.
func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(contextKey).(Context)
	return tc
}

// WithScope attaches a resolved Scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFromContext returns the resolved Scope, or Unscoped when none was attached.
func ScopeFromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeKey).(Scope)
	return scope
}
