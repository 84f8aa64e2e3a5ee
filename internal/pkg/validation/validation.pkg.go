package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"voice-order/internal/common/enum"
)

var (
	val     *validator.Validate
	valOnce sync.Once
)

func engine() *validator.Validate {
	valOnce.Do(func() {
		val = newValidator()
	})
	return val
}

var validationMessages = map[string]string{
	"required": "is required",
	"uuid":     "must be a valid UUID",
	"email":    "must be a valid email address",
	"oneof":    "must be one of the allowed values: %s",
	"min":      "must be greater than or equal to %s",
	"max":      "must be less than or equal to %s",
	"len":      "must have the exact length of %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
	"iso4217":  "must be an ISO 4217 currency code",
	"enum":     "must be one of the allowed enum values: %s",
	"notblank": "must not be blank",
}

func Setup() error {
	engine()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := registerValidations(v); err != nil {
			return fmt.Errorf("failed to register custom validations in Gin engine: %w", err)
		}
	} else {
		return fmt.Errorf("failed to get validation engine")
	}

	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidations(v); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func registerValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("enum", enum.ValidateEnum); err != nil {
		return fmt.Errorf("failed to register enum validation: %w", err)
	}
	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		return fmt.Errorf("failed to register notblank validation: %w", err)
	}
	return nil
}

// validateNotBlank rejects strings that are empty once whitespace is trimmed.
func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

func Validate(payload any) error {
	if err := engine().Struct(payload); err != nil {
		return errors.New("Validation failed: " + parsingErrorValidate(err))
	}

	return nil
}

func parsingErrorValidate(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var sb strings.Builder
		for _, e := range errs {
			msg, ok := validationMessages[e.Tag()]
			if !ok {
				msg = "failed on " + e.Tag()
			}
			switch e.Tag() {
			case "enum":
				msg = fmt.Sprintf(msg, e.Type())
			default:
				if strings.Contains(msg, "%s") {
					msg = fmt.Sprintf(msg, e.Param())
				}
			}
			sb.WriteString(fmt.Sprintf("%s: %s %s", e.Namespace(), e.Field(), msg))
			sb.WriteString(", ")
		}
		return strings.TrimSuffix(sb.String(), ", ")
	}
	return err.Error()
}
