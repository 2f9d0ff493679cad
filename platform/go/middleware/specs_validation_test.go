package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-storefront/contracts"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
)

func newValidatedRouter(t *testing.T) http.Handler {
	t.Helper()

	spec, err := contracts.LoadStorefront()
	require.NoError(t, err)

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Test-User") != "" {
				req = req.WithContext(platformauth.WithUser(req.Context(), &platformauth.UserCredentials{ID: uuid.New()}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Use(ContractValidator(spec, zaptest.NewLogger(t)))
	r.Post("/api/v1/shops", ok)
	r.Post("/api/v1/users", ok)
	r.Get("/api/v1/products", ok)
	return r
}

func TestContractValidator(t *testing.T) {
	handler := newValidatedRouter(t)

	cases := []struct {
		name       string
		method     string
		target     string
		body       string
		user       bool
		wantStatus int
	}{
		{name: "public registration", method: http.MethodPost, target: "/api/v1/users", body: `{"name":"Ann","email":"ann@example.com","password":"secret1"}`, wantStatus: http.StatusOK},
		{name: "short password", method: http.MethodPost, target: "/api/v1/users", body: `{"name":"Ann","email":"ann@example.com","password":"123"}`, wantStatus: http.StatusBadRequest},
		{name: "shop create needs credentials", method: http.MethodPost, target: "/api/v1/shops", body: `{"name":"Acme","subdomain":"acme"}`, wantStatus: http.StatusUnauthorized},
		{name: "shop create with credentials", method: http.MethodPost, target: "/api/v1/shops", body: `{"name":"Acme","subdomain":"acme"}`, user: true, wantStatus: http.StatusOK},
		{name: "subdomain pattern", method: http.MethodPost, target: "/api/v1/shops", body: `{"name":"Acme","subdomain":"Acme Shop"}`, user: true, wantStatus: http.StatusBadRequest},
		{name: "limit above range", method: http.MethodGet, target: "/api/v1/products?tenantId=" + uuid.NewString() + "&limit=101", wantStatus: http.StatusBadRequest},
		{name: "listing in range", method: http.MethodGet, target: "/api/v1/products?tenantId=" + uuid.NewString() + "&limit=2", wantStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body *strings.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tc.method, tc.target, body)
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.user {
				req.Header.Set("X-Test-User", "1")
			}
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)

			require.Equal(t, tc.wantStatus, resp.Code, resp.Body.String())
			if tc.wantStatus != http.StatusOK {
				var problem httpapi.Problem
				require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
				require.Equal(t, tc.wantStatus, problem.Status)
			}
		})
	}
}

func TestContractValidatorLeavesSpecServers(t *testing.T) {
	t.Parallel()

	spec, err := contracts.LoadStorefront()
	require.NoError(t, err)
	require.NotEmpty(t, spec.Servers)
	servers := spec.Servers

	r := chi.NewRouter()
	r.Use(ContractValidator(spec, zaptest.NewLogger(t)))
	r.Get("/api/v1/products", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	require.Equal(t, servers, spec.Servers)

	// Paths still match on any host once the copy drops the servers.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?tenantId="+uuid.NewString(), nil)
	req.Host = "acme.rname.ink"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
