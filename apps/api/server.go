package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	categorieshandler "github.com/zenGate-Global/palmyra-storefront/domains/categories/be/handler"
	categoriesrepo "github.com/zenGate-Global/palmyra-storefront/domains/categories/be/repo"
	categoriesservice "github.com/zenGate-Global/palmyra-storefront/domains/categories/be/service"
	productshandler "github.com/zenGate-Global/palmyra-storefront/domains/products/be/handler"
	productsrepo "github.com/zenGate-Global/palmyra-storefront/domains/products/be/repo"
	productsservice "github.com/zenGate-Global/palmyra-storefront/domains/products/be/service"
	shopshandler "github.com/zenGate-Global/palmyra-storefront/domains/shops/be/handler"
	shopsrepo "github.com/zenGate-Global/palmyra-storefront/domains/shops/be/repo"
	shopsservice "github.com/zenGate-Global/palmyra-storefront/domains/shops/be/service"
	usershandler "github.com/zenGate-Global/palmyra-storefront/domains/users/be/handler"
	usersrepo "github.com/zenGate-Global/palmyra-storefront/domains/users/be/repo"
	usersservice "github.com/zenGate-Global/palmyra-storefront/domains/users/be/service"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/palmyra-storefront/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/palmyra-storefront/platform/go/middleware"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/procedure"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
	tenantmiddleware "github.com/zenGate-Global/palmyra-storefront/platform/go/tenant/middleware"
)

const readinessTimeout = 2 * time.Second

type serverDeps struct {
	Logger         *zap.Logger
	Store          persistence.Store
	Parser         *tenant.HostParser
	Verify         platformauth.VerifyFunc
	Issuer         usersservice.TokenIssuer
	TenantCache    tenantmiddleware.Cache
	Contract       *openapi3.T
	CORS           platformmiddleware.CORSConfig
	RequestTimeout time.Duration
	BcryptCost     int
}

// newRouter wires the domains onto one chi router. Every request is classified by host first; tenant
// storefront paths are rewritten to /shop/<token>/... before routing.
func newRouter(deps serverDeps) http.Handler {
	logger := deps.Logger

	var userOpts []usersservice.Option
	if deps.BcryptCost > 0 {
		userOpts = append(userOpts, usersservice.WithBcryptCost(deps.BcryptCost))
	}
	userHTTPHandler := usershandler.New(usersservice.New(usersrepo.New(deps.Store), deps.Issuer, userOpts...), logger)

	shopService := shopsservice.New(shopsrepo.New(deps.Store))
	shopHTTPHandler := shopshandler.New(shopService, logger)

	productHTTPHandler := productshandler.New(productsservice.New(productsrepo.New(deps.Store)), logger)
	categoryHTTPHandler := categorieshandler.New(categoriesservice.New(categoriesrepo.New(deps.Store)), logger)

	procedures := procedure.NewBuilder(logger)

	requestTimeout := deps.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(requestTimeout),
		platformmiddleware.Metrics,
		platformmiddleware.CORS(deps.CORS),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(tenantmiddleware.HostRouting(deps.Parser, logger))
	rootRouter.Use(platformauth.JWT(deps.Verify, platformauth.DefaultCredentialExtractor))
	rootRouter.Use(platformmiddleware.RequestTrace)
	rootRouter.Use(tenantmiddleware.WithTenantScope(shopService, tenantmiddleware.Config{Cache: deps.TenantCache}, logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", readinessHandler(deps.Store, logger))
	rootRouter.Method(http.MethodGet, "/metrics", platformmiddleware.MetricsHandler())

	registerDocsRoutes(rootRouter, logger)

	rootRouter.Route("/api/v1", func(r chi.Router) {
		r.Use(platformmiddleware.ContractValidator(deps.Contract, logger))
		userHTTPHandler.Routes(r, procedures)
		shopHTTPHandler.Routes(r, procedures)
		productHTTPHandler.Routes(r, procedures)
		categoryHTTPHandler.Routes(r, procedures)
	})

	shopHTTPHandler.StorefrontRoutes(rootRouter, procedures)
	productHTTPHandler.StorefrontRoutes(rootRouter, procedures)

	return rootRouter
}

func readinessHandler(store persistence.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			httpapi.WriteError(w, r, logger, "ops.ready", apperrors.Unavailable("store unavailable", err))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
