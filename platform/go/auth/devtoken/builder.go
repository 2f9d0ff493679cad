// Package devtoken mints unsigned session tokens for local runs and CI.
package devtoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
)

const (
	defaultIssuer    = "storefront-dev"
	defaultExpiresIn = time.Hour
)

// Params describes the identity baked into a dev token.
type Params struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	TenantID  *uuid.UUID
	ExpiresIn time.Duration // 1h when zero
	Issuer    string        // "storefront-dev" when blank
}

func (p Params) validate() error {
	if p.UserID == uuid.Nil {
		return errors.New("userID is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

func (p Params) claims(now time.Time) auth.SessionClaims {
	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}
	issuer := strings.TrimSpace(p.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}

	claims := auth.SessionClaims{
		Email: strings.ToLower(strings.TrimSpace(p.Email)),
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	if p.TenantID != nil {
		claims.TenantID = p.TenantID.String()
	}
	return claims
}

// BuildUnsignedToken returns an alg "none" token with the same claims as a signed
// session token, so it passes auth.UnsignedTokenVerifier when AUTH_PROVIDER=dev.
// A zero now means the current time.
func BuildUnsignedToken(p Params, now time.Time) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, p.claims(now))
	return token.SignedString(jwt.UnsafeAllowNoneSignatureType)
}
