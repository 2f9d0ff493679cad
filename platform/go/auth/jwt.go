package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ClaimTenantID carries the id of the tenant the user owns, if any.
const ClaimTenantID = "tenant_id"

// DefaultTokenTTL applies when SignerConfig.TTL is zero.
const DefaultTokenTTL = 24 * time.Hour

const minSigningKeyLength = 16

// SessionClaims is the payload of storefront session tokens.
type SessionClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// SignerConfig configures HS256 session tokens.
type SignerConfig struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSigner validates cfg and returns a Signer.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	if len(cfg.SigningKey) < minSigningKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minSigningKeyLength)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "storefront"
	}
	return &Signer{key: []byte(cfg.SigningKey), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue signs a session token for creds and returns it with its expiry.
func (s *Signer) Issue(creds UserCredentials) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := SessionClaims{
		Email: creds.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   creds.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if creds.Name != nil {
		claims.Name = *creds.Name
	}
	if creds.TenantID != nil {
		claims.TenantID = creds.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier returns a VerifyFunc accepting only HS256 tokens signed by s and issued by s.
func (s *Signer) Verifier() VerifyFunc {
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, err
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok || !parsed.Valid {
			return nil, errors.New("invalid token")
		}
		if !claims.VerifyIssuer(s.issuer, true) {
			return nil, errors.New("unexpected issuer")
		}
		return claims, nil
	}
}

// ExtractJWTToken returns the bearer token of the Authorization header.
func ExtractJWTToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}
