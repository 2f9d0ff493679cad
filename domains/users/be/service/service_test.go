package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
)

type mockRepository struct {
	createFn     func(ctx context.Context, rec persistence.UserRecord) (persistence.UserRecord, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error)
	getByEmailFn func(ctx context.Context, email string) (persistence.UserRecord, error)
	getTenantFn  func(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error)
}

func (m *mockRepository) Create(ctx context.Context, rec persistence.UserRecord) (persistence.UserRecord, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, rec)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error) {
	if m.getByIDFn == nil {
		panic("getByIDFn not configured")
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (persistence.UserRecord, error) {
	if m.getByEmailFn == nil {
		panic("getByEmailFn not configured")
	}
	return m.getByEmailFn(ctx, email)
}

func (m *mockRepository) GetTenant(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error) {
	if m.getTenantFn == nil {
		panic("getTenantFn not configured")
	}
	return m.getTenantFn(ctx, id)
}

type issuerFunc func(creds platformauth.UserCredentials) (string, time.Time, error)

func (f issuerFunc) Issue(creds platformauth.UserCredentials) (string, time.Time, error) {
	return f(creds)
}

func noIssuer() TokenIssuer {
	return issuerFunc(func(platformauth.UserCredentials) (string, time.Time, error) {
		panic("issuer not expected")
	})
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, noIssuer(), WithBcryptCost(bcrypt.MinCost))

	_, err := svc.Register(context.Background(), RegisterInput{Name: " ", Email: "not-an-email", Password: "123"})

	var validationErr *apperrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "name")
	require.Contains(t, validationErr.Fields, "email")
	require.Contains(t, validationErr.Fields, "password")
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, noIssuer(), WithBcryptCost(bcrypt.MinCost))

	// 40 runes, 80 bytes.
	_, err := svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: strings.Repeat("é", 40)})

	var validationErr *apperrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	require.Equal(t, []string{"must be at most 72 bytes"}, validationErr.Fields["password"])
}

func TestRegisterSuccess(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		getByEmailFn: func(_ context.Context, email string) (persistence.UserRecord, error) {
			require.Equal(t, "ann@example.com", email)
			return persistence.UserRecord{}, persistence.ErrNotFound
		},
	}
	repository.createFn = func(_ context.Context, rec persistence.UserRecord) (persistence.UserRecord, error) {
		require.NotEqual(t, uuid.Nil, rec.ID)
		require.Equal(t, "ann@example.com", rec.Email)
		require.Equal(t, "Ann", *rec.Name)
		require.NotEqual(t, "secret1", rec.PasswordHash)
		require.True(t, platformauth.CheckPassword(rec.PasswordHash, "secret1"))
		return rec, nil
	}

	svc := New(repository, noIssuer(), WithBcryptCost(bcrypt.MinCost))

	user, err := svc.Register(context.Background(), RegisterInput{Name: " Ann ", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", user.Email)
	require.Nil(t, user.TenantID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	t.Run("pre-check", func(t *testing.T) {
		t.Parallel()

		repository := &mockRepository{getByEmailFn: func(context.Context, string) (persistence.UserRecord, error) {
			return persistence.UserRecord{ID: uuid.New()}, nil
		}}
		svc := New(repository, noIssuer(), WithBcryptCost(bcrypt.MinCost))

		_, err := svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
		require.ErrorIs(t, err, ErrUserExists)
		require.Equal(t, "User already exists", apperrors.MessageOf(err))
	})

	t.Run("unique index race", func(t *testing.T) {
		t.Parallel()

		repository := &mockRepository{
			getByEmailFn: func(context.Context, string) (persistence.UserRecord, error) {
				return persistence.UserRecord{}, persistence.ErrNotFound
			},
			createFn: func(context.Context, persistence.UserRecord) (persistence.UserRecord, error) {
				return persistence.UserRecord{}, persistence.ErrEmailTaken
			},
		}
		svc := New(repository, noIssuer(), WithBcryptCost(bcrypt.MinCost))

		_, err := svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
		require.ErrorIs(t, err, ErrUserExists)
	})
}

func TestIssueToken(t *testing.T) {
	t.Parallel()

	hash, err := platformauth.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)

	userID := uuid.New()
	tenantID := uuid.New()
	expires := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repository := &mockRepository{getByEmailFn: func(_ context.Context, email string) (persistence.UserRecord, error) {
		if email != "ann@example.com" {
			return persistence.UserRecord{}, persistence.ErrNotFound
		}
		return persistence.UserRecord{ID: userID, Email: email, PasswordHash: hash, TenantID: &tenantID}, nil
	}}
	issuer := issuerFunc(func(creds platformauth.UserCredentials) (string, time.Time, error) {
		require.Equal(t, userID, creds.ID)
		require.Equal(t, tenantID, *creds.TenantID)
		return "signed-token", expires, nil
	})

	svc := New(repository, issuer, WithBcryptCost(bcrypt.MinCost))

	token, err := svc.IssueToken(context.Background(), CredentialsInput{Email: "ANN@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "signed-token", token.AccessToken)
	require.Equal(t, expires, token.ExpiresAt)

	_, err = svc.IssueToken(context.Background(), CredentialsInput{Email: "ann@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.IssueToken(context.Background(), CredentialsInput{Email: "bob@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestProfile(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	repository := &mockRepository{
		getByIDFn: func(_ context.Context, id uuid.UUID) (persistence.UserRecord, error) {
			if id != userID {
				return persistence.UserRecord{}, persistence.ErrNotFound
			}
			return persistence.UserRecord{ID: id, Email: "ann@example.com", TenantID: &tenantID}, nil
		},
		getTenantFn: func(_ context.Context, id uuid.UUID) (persistence.TenantRecord, error) {
			require.Equal(t, tenantID, id)
			return persistence.TenantRecord{ID: id, Name: "Acme", Subdomain: "acme", IsActive: true}, nil
		},
	}
	svc := New(repository, noIssuer())

	profile, err := svc.Profile(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", profile.Email)
	require.NotNil(t, profile.Tenant)
	require.Equal(t, "acme", profile.Tenant.Subdomain)

	_, err = svc.Profile(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
