// Package validate wraps go-playground/validator with the ledger's custom
// types and maps failures to apperror validation errors.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/types"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Engine returns the shared validator instance.
func Engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// Money is compared numerically by gt/gte tags.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})

		// An unset date validates as an empty string so "required" rejects it.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(types.Date); ok && !d.IsZero() {
				return d.String()
			}
			return ""
		}, types.Date{})

		instance = v
	})
	return instance
}

// Struct validates s and returns an *apperror.AppError listing every failed field.
func Struct(s any) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation(err.Error())
	}

	appErr := apperror.NewValidation("payload validation failed")
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[fieldPath(e)] = message(e)
	}
	return appErr.WithDetail("fields", fields)
}

// fieldPath strips the root struct name from the namespace: "lines[0].qty_box".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "min":
		return "Must be at least " + e.Param()
	case "dive":
		return "Invalid item"
	default:
		return "Invalid value"
	}
}
