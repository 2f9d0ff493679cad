package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/palmyra-storefront/platform/go/logging"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// StoreNotFoundMessage is shown when the host names a subdomain with no active tenant.
const StoreNotFoundMessage = "store not found"

// Resolver looks up the active tenant registered for a subdomain.
// Implementations return an apperrors not-found error for unknown or inactive tenants.
type Resolver interface {
	ResolveTenant(ctx context.Context, subdomain string) (tenant.Scope, error)
}

// Config controls scope resolution.
type Config struct {
	// Cache is consulted before the resolver; nil disables caching.
	Cache Cache
}

// WithTenantScope resolves the host tenant into an explicit tenant.Scope and attaches it to the context.
// Requests without a host tenant carry tenant.Unscoped. Unknown or inactive tenants answer 404.
func WithTenantScope(resolver Resolver, cfg Config, logger *zap.Logger) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := tenant.FromContext(r.Context())
			if !tc.Present() {
				next.ServeHTTP(w, r.WithContext(tenant.WithScope(r.Context(), tenant.Unscoped())))
				return
			}

			reqLogger := httpapi.LoggerFrom(r.Context(), logger)

			if cfg.Cache != nil {
				tenantID, ok, err := cfg.Cache.Get(r.Context(), tc.Subdomain)
				if err != nil {
					reqLogger.Warn("tenant cache read failed", zap.String("subdomain", tc.Subdomain), zap.Error(err))
				}
				if ok {
					next.ServeHTTP(w, r.WithContext(withScope(r.Context(), tenant.ScopeFor(tenantID, tc.Subdomain))))
					return
				}
			}

			scope, err := resolver.ResolveTenant(r.Context(), tc.Subdomain)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindNotFound {
					err = apperrors.NotFound(StoreNotFoundMessage)
				}
				httpapi.WriteError(w, r, logger, "tenant.resolve", err)
				return
			}
			if !scope.Active() || scope.TenantID() == uuid.Nil {
				httpapi.WriteError(w, r, logger, "tenant.resolve", apperrors.NotFound(StoreNotFoundMessage))
				return
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.Put(r.Context(), tc.Subdomain, scope.TenantID()); err != nil {
					reqLogger.Warn("tenant cache write failed", zap.String("subdomain", tc.Subdomain), zap.Error(err))
				}
			}

			next.ServeHTTP(w, r.WithContext(withScope(r.Context(), scope)))
		})
	}
}

func withScope(ctx context.Context, scope tenant.Scope) context.Context {
	return platformlogging.WithStorefront(tenant.WithScope(ctx, scope), scope)
}
