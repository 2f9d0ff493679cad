package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	parser, err := tenant.NewHostParser("rname.ink", []string{"localhost"})
	require.NoError(t, err)
	hosts := CORSConfig{Hosts: parser}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name       string
		cfg        CORSConfig
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "any origin by default", method: http.MethodGet, origin: "https://evil.test", wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "preflight short-circuits", method: http.MethodOptions, origin: "https://rname.ink", wantStatus: http.StatusNoContent, wantOrigin: "*"},
		{name: "root domain", cfg: hosts, method: http.MethodGet, origin: "https://rname.ink", wantStatus: http.StatusOK, wantOrigin: "https://rname.ink"},
		{name: "tenant subdomain", cfg: hosts, method: http.MethodGet, origin: "https://acme.rname.ink:8443", wantStatus: http.StatusOK, wantOrigin: "https://acme.rname.ink:8443"},
		{name: "tenant preflight", cfg: hosts, method: http.MethodOptions, origin: "https://acme.rname.ink", wantStatus: http.StatusNoContent, wantOrigin: "https://acme.rname.ink"},
		{name: "lookalike origin", cfg: hosts, method: http.MethodGet, origin: "https://rname.ink.evil.test", wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "local host needs configuring", cfg: hosts, method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "configured extra origin", cfg: CORSConfig{Hosts: parser, AllowedOrigins: []string{"localhost"}}, method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: "http://localhost:3000"},
		{name: "configured origin admits subdomains", cfg: CORSConfig{AllowedOrigins: []string{"partner.test"}}, method: http.MethodGet, origin: "https://shop.partner.test", wantStatus: http.StatusOK, wantOrigin: "https://shop.partner.test"},
		{name: "malformed origin", cfg: hosts, method: http.MethodGet, origin: "null", wantStatus: http.StatusOK, wantOrigin: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, "/api/v1/products", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			resp := httptest.NewRecorder()

			CORS(tc.cfg)(next).ServeHTTP(resp, req)

			require.Equal(t, tc.wantStatus, resp.Code)
			require.Equal(t, tc.wantOrigin, resp.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
