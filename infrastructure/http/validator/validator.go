// Package validator checks request DTOs with go-playground/validator struct tags.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"

	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/domain/valueobject"
)

type Validator struct {
	v *playground.Validate
}

func New() *Validator {
	v := playground.New()
	_ = v.RegisterValidation("username", func(fl playground.FieldLevel) bool {
		return valueobject.ValidateUsername(fl.Field().String()) == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f.Tag.Get("json"), f.Name)
	})
	return &Validator{v: v}
}

// Struct returns a Validation AppError describing the first failing field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domainerr.NewValidationError(err.Error())
	}
	return domainerr.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "username":
		return valueobject.ErrInvalidUsername.Error()
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func jsonName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}
