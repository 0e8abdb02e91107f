package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. Field names in errors are
// the json tag names and the shipment_status tag is registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("shipment_status", func(fl validator.FieldLevel) bool {
			return entity.ShipmentStatus(fl.Field().String()).IsValid()
		})
		validate = v
	})
	return validate
}

// MessageFunc renders a human readable message for a failed field rule
type MessageFunc func(field, tag string) string

// ValidateStruct validates s and converts the first failing field, in struct
// order, into an *apperr.ValidationError
func ValidateStruct(s interface{}, message MessageFunc) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	first := fieldErrs[0]
	text := first.Field() + " failed " + first.Tag()
	if message != nil {
		text = message(first.Field(), first.Tag())
	}
	return apperr.NewValidationError(first.Field(), text)
}

// ProcessValidationErrors maps every failing field to the rule it broke
func ProcessValidationErrors(err error) map[string]string {
	result := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return result
	}
	for _, fe := range fieldErrs {
		result[fe.Field()] = fe.Tag()
	}
	return result
}
