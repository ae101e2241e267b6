package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "careerflow/pkg/errors"
)

// AllowedCVExtensions lists the CV file types the backend accepts
var AllowedCVExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// MaxCVSize is the largest CV upload the backend accepts
const MaxCVSize = 10 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cvfile", func(fl validator.FieldLevel) bool {
		return IsAllowedCVFile(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// IsAllowedCVFile checks the extension of an uploaded CV
func IsAllowedCVFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedCVExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError turns validator output into field-level domain errors
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := pkgerrors.NewValidationErrors()
	for _, e := range validationErrors {
		out.Add(strings.ToLower(e.Field()), formatFieldError(e))
	}
	return out.ErrOrNil()
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", field, strings.ToLower(e.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "cvfile":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(AllowedCVExtensions, ", "))
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
