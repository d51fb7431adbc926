package domain

import (
	"agency_crm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the "leadstatus" tag, which accepts canonical
// status strings (case-insensitive, surrounding whitespace ignored).
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("leadstatus", func(fl playground.FieldLevel) bool {
		_, ok := ParseStatus(fl.Field().String())
		return ok
	})
}
