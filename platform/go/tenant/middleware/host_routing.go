package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// HostRouting classifies the Host header once per request, attaches the resulting tenant.Context and
// rewrites tenant storefront paths to /shop/<token>/... so the router serves them from the storefront routes.
// The query string is left untouched. Paths outside the local development allow-list answer 404.
// No store lookups happen here.
func HostRouting(parser *tenant.HostParser, logger *zap.Logger) func(http.Handler) http.Handler {
	if parser == nil {
		panic("tenant middleware: host parser is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			classification := parser.Classify(r.Host)
			decision := tenant.Route(classification, r.URL.Path)

			if decision.Action == tenant.ActionBlock {
				httpapi.LoggerFrom(r.Context(), logger).Debug("path not served on local host",
					zap.String("host", classification.Host),
					zap.String("path", r.URL.Path),
				)
				httpapi.WriteProblem(w, httpapi.Problem{
					Type:     "https://rname.ink/problems/not-found",
					Title:    "Resource not found",
					Status:   http.StatusNotFound,
					Instance: r.URL.Path,
				})
				return
			}

			ctx := tenant.WithContext(r.Context(), tenant.Context{Subdomain: classification.Token})
			r = r.WithContext(ctx)

			if decision.Action == tenant.ActionRewrite {
				u := *r.URL
				u.Path = decision.Path
				u.RawPath = ""
				r.URL = &u
			}

			next.ServeHTTP(w, r)
		})
	}
}
