package apperrors

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a failure for propagation across the procedure boundary.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindUnauthorized  Kind = "unauthorized"
	KindTenantContext Kind = "tenant_context"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindUnavailable   Kind = "unavailable"
)

// Error is a typed business failure whose Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error with the same kind and message so sentinels survive re-wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthorized(message string) *Error  { return newError(KindUnauthorized, message) }
func TenantContext(message string) *Error { return newError(KindTenantContext, message) }
func Conflict(message string) *Error      { return newError(KindConflict, message) }
func NotFound(message string) *Error      { return newError(KindNotFound, message) }
func Forbidden(message string) *Error     { return newError(KindForbidden, message) }

// Unavailable marks a retryable upstream failure such as a store timeout.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, cause: cause}
}

// KindOf reports the kind of err, or "" for unclassified (internal) errors.
func KindOf(err error) Kind {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// MessageOf returns the display message of a typed failure, or "" for internal errors.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}

// ValidationError is returned when input is rejected before any store access.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return "validation error"
	}
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation error: " + strings.Join(names, ", ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) error {
	fields := FieldErrors{}
	fields.Add(field, message)
	return &ValidationError{Fields: fields}
}
