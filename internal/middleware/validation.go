package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"variantpulse/internal/errors"
	"variantpulse/pkg/contracts/domain"
)

// Validator instance with custom validators registered
var validate *validator.Validate

func init() {
	validate = validator.New()

	// iso8601 validates calendar dates in YYYY-MM-DD form
	validate.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// displaymode validates aggregation mode names
	validate.RegisterValidation("displaymode", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseDisplayMode(fl.Field().String())
		return ok
	})

	// variantname validates variant lineage labels: letters, digits,
	// dots and dashes, as published by the upstream dataset
	validate.RegisterValidation("variantname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" || len(name) > 64 {
			return false
		}
		for _, r := range name {
			switch {
			case r >= 'A' && r <= 'Z':
			case r >= 'a' && r <= 'z':
			case r >= '0' && r <= '9':
			case r == '.' || r == '-' || r == '_' || r == '*' || r == ' ':
			default:
				return false
			}
		}
		return true
	})
}

// ValidateStruct validates a struct using the shared validator instance
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fieldErrors := make([]errors.ValidationError, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				fieldErrors = append(fieldErrors, formatFieldError(fieldErr))
			}
			return errors.NewValidationErrors(fieldErrors)
		}
		return err
	}
	return nil
}

func formatFieldError(fe validator.FieldError) errors.ValidationError {
	field := strings.ToLower(fe.Field())

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "iso8601":
		message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "displaymode":
		message = fmt.Sprintf("%s must be one of: %s, %s", field, domain.ModeDistribution, domain.ModeRankedMean)
	case "variantname":
		message = fmt.Sprintf("%s contains invalid characters", field)
	case "max":
		message = fmt.Sprintf("%s exceeds maximum length of %s", field, fe.Param())
	default:
		message = fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}

	return errors.ValidationError{Field: field, Message: message}
}

// QueryParamValidator validates query parameters against known value sets
type QueryParamValidator struct{}

// NewQueryParamValidator creates a query parameter validator
func NewQueryParamValidator() *QueryParamValidator {
	return &QueryParamValidator{}
}

// ValidateEnum checks that a parameter value is one of the allowed values.
// An empty value passes; callers apply their own defaults.
func (v *QueryParamValidator) ValidateEnum(param, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return errors.ErrValidation(param,
		fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", ")))
}

// ValidateDate checks that a parameter value parses as a YYYY-MM-DD date.
// An empty value passes; callers apply their own defaults.
func (v *QueryParamValidator) ValidateDate(param, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.ErrValidation(param,
			fmt.Sprintf("%s must be a date in YYYY-MM-DD format", param))
	}
	return t, nil
}

// ContentType middleware enforces a Content-Type on mutating requests
func ContentType(contentType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				ct := r.Header.Get("Content-Type")
				if !strings.HasPrefix(ct, contentType) {
					errors.WriteError(w, errors.New(http.StatusUnsupportedMediaType,
						"UNSUPPORTED_MEDIA_TYPE",
						fmt.Sprintf("Content-Type must be %s", contentType)))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
