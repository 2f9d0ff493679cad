package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
)

// UserCredentials is the verified identity attached to a request.
type UserCredentials struct {
	ID       uuid.UUID
	Email    string
	Name     *string
	TenantID *uuid.UUID
}

type credentialsKey struct{}

// WithUser returns a derived context carrying creds.
func WithUser(ctx context.Context, creds *UserCredentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// UserFromContext reports the identity attached by JWT, if any.
func UserFromContext(ctx context.Context) (*UserCredentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(*UserCredentials)
	return creds, ok && creds != nil
}

// VerifyFunc validates a bearer token and returns its claims.
type VerifyFunc func(ctx context.Context, token string) (map[string]interface{}, error)

// ExtractFunc maps verified claims onto UserCredentials.
type ExtractFunc func(claims map[string]interface{}) (*UserCredentials, error)

var (
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid claims")
)

// JWT attaches the caller identity carried by the bearer token, if one is sent.
// Anonymous requests continue untouched; procedures apply their own access policy.
// A token that is present but fails verification is answered with 401 here.
func JWT(verify VerifyFunc, extract ExtractFunc) func(http.Handler) http.Handler {
	if verify == nil {
		panic("auth.JWT: verify func must not be nil")
	}
	if extract == nil {
		extract = DefaultCredentialExtractor
	}

	authenticate := func(r *http.Request) (*UserCredentials, error) {
		token, found := ExtractJWTToken(r)
		if !found || token == "" {
			return nil, nil
		}
		claims, err := verify(r.Context(), token)
		if err != nil {
			return nil, errInvalidToken
		}
		creds, err := extract(claims)
		if err != nil {
			return nil, errInvalidClaims
		}
		return creds, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			creds, err := authenticate(r)
			switch {
			case err != nil:
				writeUnauthorized(w, r, err.Error())
			case creds == nil:
				next.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), creds)))
			}
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate",
		fmt.Sprintf(`Bearer realm="storefront", error="invalid_token", error_description=%q`, detail))
	httpapi.WriteProblem(w, httpapi.Problem{
		Type:     "https://rname.ink/problems/unauthorized",
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// claimSet reads loosely typed JWT claims.
type claimSet map[string]interface{}

func (c claimSet) str(key string) string {
	s, _ := c[key].(string)
	return s
}

func (c claimSet) optional(key string) *string {
	if s := c.str(key); s != "" {
		return &s
	}
	return nil
}

func (c claimSet) subject() string {
	if sub := c.str("sub"); sub != "" {
		return sub
	}
	return c.str("user_id")
}

// DefaultCredentialExtractor reads sub (or user_id), email, name and tenant_id.
func DefaultCredentialExtractor(claims map[string]interface{}) (*UserCredentials, error) {
	if claims == nil {
		return nil, errors.New("missing claims")
	}
	set := claimSet(claims)

	id, err := uuid.Parse(set.subject())
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	creds := &UserCredentials{ID: id, Email: set.str("email"), Name: set.optional("name")}
	if raw := set.optional(ClaimTenantID); raw != nil {
		tenantID, err := uuid.Parse(*raw)
		if err != nil {
			return nil, fmt.Errorf("tenant id: %w", err)
		}
		creds.TenantID = &tenantID
	}
	return creds, nil
}

// UnsignedTokenVerifier accepts tokens without checking their signature; the registered
// time claims are still enforced. Only for AUTH_PROVIDER=dev.
func UnsignedTokenVerifier() VerifyFunc {
	parser := jwt.NewParser()
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("parse unsigned token: %w", err)
		}
		if err := claims.Valid(); err != nil {
			return nil, fmt.Errorf("unsigned token claims: %w", err)
		}
		return claims, nil
	}
}
