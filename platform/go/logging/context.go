package logging

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

type (
	loggerKey struct{}
	fieldsKey struct{}
)

// lateFields collects fields resolved downstream of RequestLogger for the completion line.
type lateFields struct {
	mu     sync.Mutex
	fields []zap.Field
}

func (f *lateFields) add(fields []zap.Field) {
	f.mu.Lock()
	f.fields = append(f.fields, fields...)
	f.mu.Unlock()
}

func (f *lateFields) snapshot() []zap.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]zap.Field(nil), f.fields...)
}

// WithLogger returns a derived context carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger.
func FromContext(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(loggerKey{}).(*zap.Logger)
	return logger, ok && logger != nil
}

// OrDefault returns the request logger, or fallback when none is stored.
func OrDefault(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := FromContext(ctx); ok {
		return logger
	}
	return fallback
}

// AddFields enriches the request logger on ctx and the request completion line with fields.
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	if late, ok := ctx.Value(fieldsKey{}).(*lateFields); ok {
		late.add(fields)
	}
	if logger, ok := FromContext(ctx); ok {
		ctx = WithLogger(ctx, logger.With(fields...))
	}
	return ctx
}

// WithStorefront records the shop a request was served for. Unscoped requests are left as they are.
func WithStorefront(ctx context.Context, scope tenant.Scope) context.Context {
	if !scope.Active() {
		return ctx
	}
	return AddFields(ctx,
		zap.String("tenant_subdomain", scope.Subdomain()),
		zap.String("tenant_id", scope.TenantID().String()),
	)
}

// RequestLogger derives a per-request logger from base and logs one line per request.
// The path is captured before host routing rewrites it, so the log shows what the client asked for.
// Fields added later through AddFields also land on the completion line.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()

			fields := []zap.Field{
				zap.String("http_method", r.Method),
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			logger := base.With(fields...)

			late := &lateFields{}
			ctx := context.WithValue(WithLogger(r.Context(), logger), fieldsKey{}, late)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.Info("request completed", append(late.snapshot(),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(started)),
			)...)
		})
	}
}
