package devtoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
)

func parseClaims(t *testing.T, token string) (*jwt.Token, jwt.MapClaims) {
	t.Helper()

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	return parsed, claims
}

func TestBuildUnsignedToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	userID := uuid.MustParse("6f1c2f0e-8a4d-4c39-9a59-0f0b8e8b7c11")
	tenantID := uuid.MustParse("0b6f3b1a-2c5e-4c7a-8d3e-1e2f3a4b5c6d")

	token, err := BuildUnsignedToken(Params{
		UserID:    userID,
		Email:     "Owner@Example.com",
		Name:      "Shop Owner",
		TenantID:  &tenantID,
		ExpiresIn: 2 * time.Hour,
	}, now)
	require.NoError(t, err)

	parsed, claims := parseClaims(t, token)
	require.Equal(t, "none", parsed.Header["alg"])
	require.Equal(t, "storefront-dev", claims["iss"])
	require.Equal(t, userID.String(), claims["sub"])
	require.Equal(t, "owner@example.com", claims["email"])
	require.Equal(t, "Shop Owner", claims["name"])
	require.Equal(t, tenantID.String(), claims[auth.ClaimTenantID])
	require.Equal(t, float64(now.Add(2*time.Hour).Unix()), claims["exp"])
}

func TestBuildUnsignedTokenWithoutTenant(t *testing.T) {
	t.Parallel()

	token, err := BuildUnsignedToken(Params{UserID: uuid.New(), Email: "shopper@example.com"}, time.Time{})
	require.NoError(t, err)

	_, claims := parseClaims(t, token)
	require.NotContains(t, claims, auth.ClaimTenantID)
	require.NotContains(t, claims, "name")
}

func TestBuildUnsignedTokenIsAcceptedByDevVerifier(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := BuildUnsignedToken(Params{UserID: userID, Email: "owner@example.com", Issuer: "ci"}, time.Time{})
	require.NoError(t, err)

	claims, err := auth.UnsignedTokenVerifier()(context.Background(), token)
	require.NoError(t, err)
	creds, err := auth.DefaultCredentialExtractor(claims)
	require.NoError(t, err)
	require.Equal(t, userID, creds.ID)
	require.Equal(t, "ci", claims["iss"])
}

func TestBuildUnsignedTokenValidation(t *testing.T) {
	t.Parallel()

	_, err := BuildUnsignedToken(Params{Email: "a@example.com"}, time.Time{})
	require.Error(t, err)

	_, err = BuildUnsignedToken(Params{UserID: uuid.New(), Email: "  "}, time.Time{})
	require.Error(t, err)
}
