package enum

import (
	"github.com/go-playground/validator/v10"
)

type validEnum interface {
	IsValid() bool
}

// ValidateEnum backs the `enum` validation tag for any type with IsValid.
func ValidateEnum(fl validator.FieldLevel) bool {
	if !fl.Field().CanInterface() {
		return false
	}
	if v, ok := fl.Field().Interface().(validEnum); ok {
		return v.IsValid()
	}
	return false
}
