// Package validate runs go-playground/validator struct tags and flattens the
// result into a field → message map keyed by JSON field names.
//
//	type Input struct {
//	    Username string          `json:"username" validate:"required,max=50"`
//	    Price    decimal.Decimal `json:"price"    validate:"required,gt=0,money"`
//	    Items    []Item          `json:"items"    validate:"required,min=1,dive"`
//	}
//
// decimal.Decimal fields are validated as float64, so numeric rules apply.
// The money rule allows at most two decimal places, the scale of every
// amount column.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("money", money)
	})
	return v
}

// Struct validates s. An empty map means no errors. Only the first failing
// rule per field is reported.
func Struct(s interface{}) map[string]string {
	errs := make(map[string]string)

	err := instance().Struct(s)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["_"] = err.Error()
		return errs
	}

	for _, fe := range fieldErrs {
		name := fieldPath(fe)
		if _, seen := errs[name]; seen {
			continue
		}
		errs[name] = message(name, fe)
	}
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// money reports whether the field has no more than two decimal places.
// Decimals reach it already converted to float64 by decimalValue.
func money(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(f.Float()).Exponent() >= -2
	case reflect.String:
		d, err := decimal.NewFromString(f.String())
		return err == nil && d.Exponent() >= -2
	default:
		return false
	}
}

// fieldPath drops the root struct name: "saleInput.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	param := fe.Param()
	isText := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "min":
		switch {
		case isText:
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		case isList:
			return fmt.Sprintf("The %s must have at least %s items.", field, param)
		}
		return fmt.Sprintf("The %s must be at least %s.", field, param)
	case "max":
		switch {
		case isText:
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		case isList:
			return fmt.Sprintf("The %s must not have more than %s items.", field, param)
		}
		return fmt.Sprintf("The %s must not be greater than %s.", field, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "lte":
		return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "alphanum":
		return fmt.Sprintf("The %s field must contain only letters and numbers.", field)
	case "money":
		return fmt.Sprintf("The %s must have at most 2 decimal places.", field)
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
