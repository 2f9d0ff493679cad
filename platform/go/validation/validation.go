// Package validation checks procedure inputs with struct tags and reports failures as apperrors field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})

	// Prices are compared as float64 so the numeric tags (gt, lte) apply to decimals.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return tenant.SubdomainPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	// maxbytes bounds the encoded length; max counts runes. bcrypt rejects secrets over 72 bytes.
	if err := v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("maxbytes: bad limit %q", fl.Param()))
		}
		return len(fl.Field().String()) <= limit
	}); err != nil {
		panic(err)
	}

	return v
}

// Struct validates s and returns an *apperrors.ValidationError listing every failing field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := apperrors.FieldErrors{}
	for _, fe := range validationErrs {
		fields.Add(fieldPath(fe), message(fe))
	}
	return &apperrors.ValidationError{Fields: fields}
}

// fieldPath drops the top-level struct name from the namespace ("CreateInput.images[0]" -> "images[0]").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "subdomain":
		return "must contain only lowercase letters, numbers and hyphens"
	case "fqdn":
		return "must be a valid domain name"
	case "url":
		return "must be a valid URL"
	case "ne":
		return fmt.Sprintf("must not be %q", fe.Param())
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
