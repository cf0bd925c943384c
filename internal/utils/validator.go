// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var contentHashPattern = regexp.MustCompile("^[a-f0-9]{64}$")

func init() {
	validate = validator.New()
	validate.RegisterValidation("content_hash", validateContentHash)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// content hashes are lowercase hex sha-256 digests
func validateContentHash(fl validator.FieldLevel) bool {
	return contentHashPattern.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "content_hash":
		return "Content hash must be a 64 character lowercase hex digest"
	default:
		return e.Field() + " is invalid"
	}
}
