package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks invoice records before they reach the rendering engine.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator with the decimal and SIRET rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Compare decimals numerically in gt/gte/lte tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report JSON field names instead of Go names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("siret", func(fl validator.FieldLevel) bool {
		return IsValidSIRET(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate returns ValidationErrors listing every failed field, or nil
func (v *Validator) Validate(inv *InvoiceRecord) error {
	var errs ValidationErrors

	if err := v.v.Struct(inv); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, NewValidationError(fieldPath(fe.Namespace()), fe.Value(), fe.Tag(), ruleMessage(fe)))
		}
	}

	if inv.VATRate != nil {
		rate := *inv.VATRate
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, NewValidationError("vat_rate", rate.String(), "range", "must be between 0 and 100"))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IsValidSIRET reports whether s is a 14-digit SIRET, spaces allowed
func IsValidSIRET(s string) bool {
	digits := 0
	for _, c := range s {
		if c == ' ' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
		digits++
	}
	return digits == 14
}

func fieldPath(namespace string) string {
	// Drop the root struct name: "InvoiceRecord.lines[0].quantity" -> "lines[0].quantity"
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email address"
	case "siret":
		return "must be 14 digits"
	default:
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
}
