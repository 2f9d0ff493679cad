// Package requesttrace records on whose behalf a request runs.
package requesttrace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
)

// Kind classifies the caller.
type Kind string

const (
	KindUser      Kind = "user"
	KindAnonymous Kind = "anonymous"
)

// Trace is the request-scoped caller record. UserID is set only for KindUser.
// OwnedTenant is the tenant the user owns, HostTenant the subdomain the request was
// addressed to; they are independent and either may be empty.
type Trace struct {
	Kind        Kind
	UserID      *uuid.UUID
	OwnedTenant *uuid.UUID
	HostTenant  string
	RequestID   string
}

// ForUser builds the trace of an authenticated caller.
func ForUser(creds *platformauth.UserCredentials, requestID string) (Trace, error) {
	if creds == nil || creds.ID == uuid.Nil {
		return Trace{}, errors.New("requesttrace: credentials without a user id")
	}
	userID := creds.ID
	return Trace{Kind: KindUser, UserID: &userID, OwnedTenant: creds.TenantID, RequestID: requestID}, nil
}

// Anonymous builds the trace of a caller without a token, e.g. a shopper browsing a storefront.
func Anonymous(requestID string) Trace {
	return Trace{Kind: KindAnonymous, RequestID: requestID}
}

// Fields renders the trace as log fields, skipping empty values.
func (t Trace) Fields() []zap.Field {
	fields := []zap.Field{zap.String("actor_kind", string(t.Kind))}
	if t.UserID != nil {
		fields = append(fields, zap.Stringer("user_id", t.UserID))
	}
	if t.OwnedTenant != nil {
		fields = append(fields, zap.Stringer("owned_tenant", t.OwnedTenant))
	}
	if t.HostTenant != "" {
		fields = append(fields, zap.String("host_tenant", t.HostTenant))
	}
	return fields
}

type traceKey struct{}

// With stores t on ctx.
func With(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// From returns the trace stored on ctx.
func From(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// FromOrAnonymous returns the stored trace or an anonymous one.
func FromOrAnonymous(ctx context.Context) Trace {
	if t, ok := From(ctx); ok {
		return t
	}
	return Anonymous("")
}
