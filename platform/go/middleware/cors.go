package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// CORSConfig selects the browser origins allowed to call the API.
// With no Hosts and no AllowedOrigins any origin is allowed.
type CORSConfig struct {
	// Hosts admits the root domain and every tenant subdomain it classifies.
	Hosts *tenant.HostParser
	// AllowedOrigins are extra hostnames; each also admits its subdomains.
	AllowedOrigins []string
}

// CORS answers preflight requests and stamps the allow headers. Storefront subdomains call the API cross-origin.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}
	if cfg.Hosts != nil || len(cfg.AllowedOrigins) > 0 {
		opts.AllowOriginFunc = originPredicate(cfg)
	}
	return cors.New(opts).Handler
}

func originPredicate(cfg CORSConfig) func(string) bool {
	extra := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = tenant.NormalizeHost(o); o != "" {
			extra = append(extra, o)
		}
	}

	return func(origin string) bool {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if cfg.Hosts != nil {
			switch cfg.Hosts.Classify(u.Host).Kind {
			case tenant.KindRoot, tenant.KindTenant:
				return true
			}
		}
		host := tenant.NormalizeHost(u.Host)
		for _, candidate := range extra {
			if host == candidate || strings.HasSuffix(host, "."+candidate) {
				return true
			}
		}
		return false
	}
}
