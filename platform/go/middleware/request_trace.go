package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/palmyra-storefront/platform/go/logging"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/requesttrace"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// RequestTrace stores the caller trace on the context and adds it to the request logger.
// Mount it after auth.JWT and HostRouting.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := platformlogging.OrDefault(ctx, nil)
		requestID := middleware.GetReqID(ctx)

		trace := requesttrace.Anonymous(requestID)
		if creds, ok := platformauth.UserFromContext(ctx); ok {
			var err error
			if trace, err = requesttrace.ForUser(creds, requestID); err != nil {
				httpapi.WriteError(w, r, logger, "request.trace", fmt.Errorf("%w: %v", apperrors.Unauthorized("UNAUTHORIZED"), err))
				return
			}
		}
		trace.HostTenant = tenant.FromContext(ctx).Subdomain

		ctx = requesttrace.With(ctx, trace)
		if logger != nil {
			ctx = platformlogging.WithLogger(ctx, logger.With(trace.Fields()...))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
