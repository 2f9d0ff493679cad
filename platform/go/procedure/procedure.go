// Package procedure gates HTTP handlers behind access policies and times every invocation.
package procedure

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/httpapi"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Policy is an access requirement checked before the handler runs.
type Policy string

const (
	// Authenticated requires a verified user identity.
	Authenticated Policy = "authenticated"
	// TenantScoped requires a tenant resolved from the request host.
	TenantScoped Policy = "tenant"
)

// TenantRequiredMessage is returned when a tenant-scoped procedure runs without a tenant.
const TenantRequiredMessage = "Tenant ID is required for this operation"

var procedureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "storefront",
	Subsystem: "procedure",
	Name:      "duration_seconds",
	Help:      "Latency of API procedures by name and outcome.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
}, []string{"procedure", "outcome"})

type ctxKey string

const nameKey ctxKey = "STOREFRONT_PROCEDURE"

// NameFrom returns the procedure name attached by Handle.
func NameFrom(ctx context.Context) string {
	name, _ := ctx.Value(nameKey).(string)
	return name
}

// Builder wraps handlers as named procedures.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder returns a Builder logging through logger.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Handle returns h gated by policies (checked in order) and timed under name.
// A procedure without policies is public.
func (b *Builder) Handle(name string, h http.HandlerFunc, policies ...Policy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(context.WithValue(r.Context(), nameKey, name))

		defer func() {
			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			procedureDuration.WithLabelValues(name, outcome(status)).Observe(elapsed.Seconds())
			httpapi.LoggerFrom(r.Context(), b.logger).Debug("procedure completed",
				zap.String("procedure", name),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
			)
		}()

		for _, policy := range policies {
			if err := check(r.Context(), policy); err != nil {
				httpapi.WriteError(ww, r, b.logger, name, err)
				return
			}
		}

		h(ww, r)
	})
}

func check(ctx context.Context, policy Policy) error {
	switch policy {
	case Authenticated:
		_, err := User(ctx)
		return err
	case TenantScoped:
		_, err := Scope(ctx)
		return err
	default:
		return nil
	}
}

// User returns the verified identity, or an unauthorized error.
func User(ctx context.Context) (*auth.UserCredentials, error) {
	creds, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("UNAUTHORIZED")
	}
	return creds, nil
}

// Scope returns the resolved tenant scope, or a tenant-context error when the host named no tenant.
func Scope(ctx context.Context) (tenant.Scope, error) {
	scope := tenant.ScopeFromContext(ctx)
	if !scope.Active() {
		return tenant.Scope{}, apperrors.TenantContext(TenantRequiredMessage)
	}
	return scope, nil
}

func outcome(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "ok"
	}
}
