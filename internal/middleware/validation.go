package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"beerfinder/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("flavor", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return raw == "" || domain.Flavor(raw).Valid()
	})
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// ErrMalformedBody is returned when the request body is not valid JSON
var ErrMalformedBody = domain.NewError(domain.ErrValidation, "malformed request body")

// MaxBodyBytes caps the JSON body DecodeAndValidate reads.
const MaxBodyBytes = 2621440

// ErrBodyTooLarge is returned when the request body exceeds MaxBodyBytes
var ErrBodyTooLarge = domain.ValidationError{Field: "body", Message: "Request body is too large"}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return ErrMalformedBody
	}
	if err := ValidateRequest(v); err != nil {
		if fields := FormatValidationErrors(err); len(fields) > 0 {
			return fields
		}
		return err
	}
	return nil
}

// ValidationError represents a field validation error
type ValidationError = domain.ValidationError

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) domain.ValidationErrors {
	var out domain.ValidationErrors

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			out = append(out, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return out
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "latitude":
		return "Latitude must be between -90 and 90"
	case "longitude":
		return "Longitude must be between -180 and 180"
	case "flavor":
		return "Unknown flavor"
	case "uuid":
		return "Invalid identifier"
	default:
		return "Invalid value"
	}
}
