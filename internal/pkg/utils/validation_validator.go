package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate         *validator.Validate
	referencePattern = regexp.MustCompile(`^(.*/)?[A-Z][A-Za-z]+/[A-Za-z0-9\-._]{1,64}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("reference", validateReference)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateReference(fl validator.FieldLevel) bool {
	return referencePattern.MatchString(fl.Field().String())
}
