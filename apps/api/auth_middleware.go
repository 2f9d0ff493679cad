package main

import (
	"time"

	"go.uber.org/zap"

	usersservice "github.com/zenGate-Global/palmyra-storefront/domains/users/be/service"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/auth/devtoken"
)

// buildAuth returns the bearer token verifier and the matching issuer used by auth.token.
func buildAuth(cfg config, logger *zap.Logger) (platformauth.VerifyFunc, usersservice.TokenIssuer) {
	switch cfg.AuthProvider {
	case "jwt":
		signer, err := platformauth.NewSigner(platformauth.SignerConfig{
			SigningKey: cfg.AuthSigningKey,
			TTL:        cfg.AuthTokenTTL,
		})
		if err != nil {
			logger.Fatal("init token signer", zap.Error(err))
		}
		return signer.Verifier(), signer
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		return platformauth.UnsignedTokenVerifier(), newDevTokenIssuer(cfg.AuthTokenTTL)
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
		return nil, nil
	}
}

// devTokenIssuer mints unsigned tokens accepted by the dev verifier.
type devTokenIssuer struct {
	ttl time.Duration
	now func() time.Time
}

func newDevTokenIssuer(ttl time.Duration) *devTokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &devTokenIssuer{ttl: ttl, now: time.Now}
}

func (i *devTokenIssuer) Issue(creds platformauth.UserCredentials) (string, time.Time, error) {
	now := i.now().UTC()
	params := devtoken.Params{
		UserID:    creds.ID,
		Email:     creds.Email,
		TenantID:  creds.TenantID,
		ExpiresIn: i.ttl,
	}
	if creds.Name != nil {
		params.Name = *creds.Name
	}

	token, err := devtoken.BuildUnsignedToken(params, now)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(i.ttl), nil
}
