package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-storefront/domains/users/be/repo"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/validation"
)

// Domain errors. Messages are shown to end users as is.
var (
	ErrUserExists         = apperrors.Conflict("User already exists")
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password")
	ErrNotFound           = apperrors.NotFound("User not found")
)

// User represents the domain view of a user record. The password hash never leaves the service.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	TenantID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership summarizes the shop a user owns.
type Membership struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	IsActive  bool
}

// Profile is the authenticated user together with their shop, if any.
type Profile struct {
	User
	Tenant *Membership
}

// RegisterInput is the payload of user.register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// CredentialsInput is the payload of auth.token.
type CredentialsInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Token is a signed bearer token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenIssuer signs session tokens for verified users.
type TokenIssuer interface {
	Issue(creds platformauth.UserCredentials) (string, time.Time, error)
}

// Service defines the business operations for the users domain.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (User, error)
	IssueToken(ctx context.Context, input CredentialsInput) (Token, error)
	Profile(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// Option customizes the service.
type Option func(*service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.bcryptCost = cost }
}

type service struct {
	repo       repo.Repository
	issuer     TokenIssuer
	bcryptCost int
}

// New constructs a users Service backed by the provided repository and token issuer.
func New(r repo.Repository, issuer TokenIssuer, opts ...Option) Service {
	if r == nil {
		panic("users repository is required")
	}
	if issuer == nil {
		panic("token issuer is required")
	}
	s := &service{repo: r, issuer: issuer, bcryptCost: platformauth.DefaultBcryptCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return User{}, err
	}

	// Fast path only; the unique index on email decides concurrent registrations.
	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return User{}, ErrUserExists
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return User{}, err
	}

	hash, err := platformauth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return User{}, err
	}

	name := input.Name
	record, err := s.repo.Create(ctx, persistence.UserRecord{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         &name,
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, mapPersistenceError(err)
	}

	return mapUser(record), nil
}

func (s *service) IssueToken(ctx context.Context, input CredentialsInput) (Token, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return Token{}, err
	}

	record, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}
	if !platformauth.CheckPassword(record.PasswordHash, input.Password) {
		return Token{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(platformauth.UserCredentials{
		ID:       record.ID,
		Email:    record.Email,
		Name:     record.Name,
		TenantID: record.TenantID,
	})
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	if userID == uuid.Nil {
		return Profile{}, ErrNotFound
	}

	record, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}

	profile := Profile{User: mapUser(record)}
	if record.TenantID != nil {
		t, err := s.repo.GetTenant(ctx, *record.TenantID)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return Profile{}, err
		}
		if err == nil {
			profile.Tenant = &Membership{ID: t.ID, Name: t.Name, Subdomain: t.Subdomain, IsActive: t.IsActive}
		}
	}
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapUser(record persistence.UserRecord) User {
	return User{
		ID:        record.ID,
		Email:     record.Email,
		Name:      record.Name,
		TenantID:  record.TenantID,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrEmailTaken):
		return ErrUserExists
	default:
		return err
	}
}
