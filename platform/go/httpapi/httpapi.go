// Package httpapi writes JSON and RFC 7807 problem responses and maps the error taxonomy to HTTP statuses.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	platformlogging "github.com/zenGate-Global/palmyra-storefront/platform/go/logging"
)

const (
	problemTypeValidation    = "https://rname.ink/problems/validation-error"
	problemTypeUnauthorized  = "https://rname.ink/problems/unauthorized"
	problemTypeTenantContext = "https://rname.ink/problems/tenant-required"
	problemTypeNotFound      = "https://rname.ink/problems/not-found"
	problemTypeForbidden     = "https://rname.ink/problems/forbidden"
	problemTypeConflict      = "https://rname.ink/problems/conflict"
	problemTypeUnavailable   = "https://rname.ink/problems/unavailable"
	problemTypeInternal      = "https://rname.ink/problems/internal-error"

	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// RetryAfter is advertised on 503 responses caused by store timeouts.
const RetryAfter = 2 * time.Second

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", contentTypeProblem)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Invalid("body", "request body must be a valid JSON object")
	}
	if dec.More() {
		return apperrors.Invalid("body", "request body must contain a single JSON object")
	}
	return nil
}

// ProblemFor classifies err into a problem body. Internal and store failures never leak their details.
func ProblemFor(err error) Problem {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		p := Problem{
			Type:   problemTypeValidation,
			Title:  "Validation failed",
			Status: http.StatusBadRequest,
			Detail: "one or more fields are invalid",
		}
		if len(validationErr.Fields) > 0 {
			p.Errors = make(map[string][]string, len(validationErr.Fields))
			for field, messages := range validationErr.Fields {
				p.Errors[field] = append([]string(nil), messages...)
			}
		}
		return p
	}

	message := apperrors.MessageOf(err)
	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthorized:
		return Problem{Type: problemTypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: message}
	case apperrors.KindTenantContext:
		return Problem{Type: problemTypeTenantContext, Title: "Tenant required", Status: http.StatusBadRequest, Detail: message}
	case apperrors.KindNotFound:
		return Problem{Type: problemTypeNotFound, Title: "Resource not found", Status: http.StatusNotFound, Detail: message}
	case apperrors.KindForbidden:
		return Problem{Type: problemTypeForbidden, Title: "Forbidden", Status: http.StatusForbidden, Detail: message}
	case apperrors.KindConflict:
		return Problem{Type: problemTypeConflict, Title: "Conflict", Status: http.StatusConflict, Detail: message}
	case apperrors.KindUnavailable:
		return Problem{Type: problemTypeUnavailable, Title: "Service unavailable", Status: http.StatusServiceUnavailable, Detail: message}
	default:
		return Problem{Type: problemTypeInternal, Title: "Internal server error", Status: http.StatusInternalServerError, Detail: "an unexpected error occurred"}
	}
}

// WriteError logs err against the procedure name and writes its problem response.
// Server faults log at ERROR, missing resources at INFO and rejected requests at WARN.
func WriteError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, procedure string, err error) {
	problem := ProblemFor(err)
	problem.Instance = r.URL.Path

	logger := LoggerFrom(r.Context(), fallback)
	fields := []zap.Field{
		zap.String("procedure", procedure),
		zap.Int("status", problem.Status),
		zap.Error(err),
	}

	switch {
	case problem.Status >= http.StatusInternalServerError:
		logger.Error("procedure failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("resource not found", fields...)
	default:
		logger.Warn("request rejected", fields...)
	}

	if problem.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(RetryAfter.Seconds())))
	}
	WriteProblem(w, problem)
}

// LoggerFrom returns the request logger, the fallback, or a no-op logger.
func LoggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return platformlogging.OrDefault(ctx, fallback)
}
