package http

import (
	"math"
	"reflect"
	"strings"

	"loan-ledger/internal/domain/cashflow"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// strictly positive amount
	_ = v.RegisterValidation("dpos", func(fl validator.FieldLevel) bool {
		d, ok := asDecimal(fl.Field())
		return ok && d.Sign() > 0
	})
	// max 2 decimal places
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() == reflect.Float32 || f.Kind() == reflect.Float64 {
			x := f.Float()
			return math.Abs(x-(math.Round(x*100)/100)) < 1e-9
		}
		d, ok := asDecimal(f)
		return ok && d.Equal(d.Round(2))
	})
	// FUNDING or REPAYMENT, any casing
	_ = v.RegisterValidation("cftype", func(fl validator.FieldLevel) bool {
		_, err := cashflow.ParseType(fl.Field().String())
		return err == nil
	})

	return &CustomValidator{v: v}
}

func asDecimal(f reflect.Value) (decimal.Decimal, bool) {
	if f.Kind() != reflect.String {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(f.String())
	return d, err == nil
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "dpos":
			out = append(out, FieldError{Field: field, Message: "must be a positive amount"})
		case "dec2":
			out = append(out, FieldError{Field: field, Message: "must have at most 2 decimal places"})
		case "cftype":
			out = append(out, FieldError{Field: field, Message: "must be FUNDING or REPAYMENT"})
		case "datetime":
			out = append(out, FieldError{Field: field, Message: "must be a date formatted " + e.Param()})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
