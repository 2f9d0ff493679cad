package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
)

func TestProblemFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{name: "validation", err: apperrors.Invalid("price", "must be positive"), status: http.StatusBadRequest, detail: "one or more fields are invalid"},
		{name: "unauthorized", err: apperrors.Unauthorized("sign in required"), status: http.StatusUnauthorized, detail: "sign in required"},
		{name: "tenant context", err: apperrors.TenantContext("Tenant ID is required for this operation"), status: http.StatusBadRequest, detail: "Tenant ID is required for this operation"},
		{name: "not found", err: apperrors.NotFound("store not found"), status: http.StatusNotFound, detail: "store not found"},
		{name: "forbidden", err: apperrors.Forbidden("not your shop"), status: http.StatusForbidden, detail: "not your shop"},
		{name: "conflict", err: apperrors.Conflict("Subdomain already taken"), status: http.StatusConflict, detail: "Subdomain already taken"},
		{name: "unavailable", err: apperrors.Unavailable("retry later", context.DeadlineExceeded), status: http.StatusServiceUnavailable, detail: "retry later"},
		{name: "internal", err: errors.New("pq: relation does not exist"), status: http.StatusInternalServerError, detail: "an unexpected error occurred"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := ProblemFor(tc.err)
			require.Equal(t, tc.status, p.Status)
			require.Equal(t, tc.detail, p.Detail)
			require.NotEmpty(t, p.Title)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)

	WriteError(rr, req, zaptest.NewLogger(t), "product.getAll", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	require.NotContains(t, rr.Body.String(), "10.0.0.5")

	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "/api/v1/products", p.Instance)
}

func TestWriteErrorUnavailableSetsRetryAfter(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/shop", nil)

	WriteError(rr, req, nil, "shop.getMyShop", apperrors.Unavailable("the store did not respond in time, retry later", context.DeadlineExceeded))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "2", rr.Header().Get("Retry-After"))
}

func TestWriteErrorIncludesFieldErrors(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shops", nil)

	fields := apperrors.FieldErrors{}
	fields.Add("subdomain", "must match ^[a-z0-9-]+$")
	WriteError(rr, req, zaptest.NewLogger(t), "shop.create", &apperrors.ValidationError{Fields: fields})

	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, []string{"must match ^[a-z0-9-]+$"}, p.Errors["subdomain"])
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Name string `json:"name"`
	}

	ok := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme"}`))
	require.NoError(t, DecodeJSON(ok, &dst))
	require.Equal(t, "Acme", dst.Name)

	for _, body := range []string{`{"name":`, `{"unknown":1}`, `{"name":"a"}{"name":"b"}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(req, &dst)
		require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), body)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"id":"abc"}`, rr.Body.String())
}
