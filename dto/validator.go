package dto

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/little-lingo/tutor_api/shared"
)

var validate = NewValidator()

var (
	deviceIDPattern = regexp.MustCompile(`^[A-Z]{4}\d{4}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
)

// NewValidator builds the request validator with the custom device_id rule
// registered. Handlers share the package-level instance.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("device_id", func(fl validator.FieldLevel) bool {
		return deviceIDPattern.MatchString(fl.Field().String())
	})
	return v
}

func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}

// FormatValidationErrors converts validator errors into the field-level
// error body the clients expect.
func FormatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	fieldErr := validationErrors[0]
	field := strings.ToLower(fieldErr.Field())

	var message string
	switch fieldErr.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "email":
		message = fmt.Sprintf("%s must be a valid email address", field)
	case "device_id":
		message = "device_id must be 4 uppercase letters followed by 4 digits"
	case "min":
		message = fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	default:
		message = fmt.Sprintf("%s is invalid", field)
	}

	return shared.NewValidationError(field, fieldErr.Value(), message)
}

// ValidateDeviceID checks the ABCD1234 device id format with a message
// naming the specific failure.
func ValidateDeviceID(deviceID string) *shared.AppError {
	if deviceID == "" {
		return shared.NewValidationError("device_id", deviceID, "device_id is required")
	}
	if len(deviceID) != 8 {
		return shared.NewValidationError("device_id", deviceID, "device_id must be exactly 8 characters")
	}
	if !deviceIDPattern.MatchString(deviceID) {
		return shared.NewValidationError("device_id", deviceID, "device_id must be 4 uppercase letters followed by 4 digits")
	}
	return nil
}

func ValidateSeasonEpisode(season, episode int) *shared.AppError {
	if season < 1 || season > shared.MaxSeason {
		return shared.NewValidationError("season", season,
			fmt.Sprintf("season must be between 1 and %d", shared.MaxSeason))
	}
	if episode < 1 || episode > shared.MaxEpisode {
		return shared.NewValidationError("episode", episode,
			fmt.Sprintf("episode must be between 1 and %d", shared.MaxEpisode))
	}
	return nil
}

// ValidatePromptContent bounds the trimmed prompt length and returns the
// trimmed value the caller should store.
func ValidatePromptContent(prompt string) (string, *shared.AppError) {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) < 10 {
		return "", shared.NewValidationError("system_prompt", prompt, "system_prompt must be at least 10 characters")
	}
	if len(trimmed) > 5000 {
		return "", shared.NewValidationError("system_prompt", prompt, "system_prompt must be at most 5000 characters")
	}
	return trimmed, nil
}

func ValidateName(name string) *shared.AppError {
	if name == "" || len(name) > 100 {
		return shared.NewValidationError("name", name, "name must be between 1 and 100 characters")
	}
	if !namePattern.MatchString(name) {
		return shared.NewValidationError("name", name, "name may only contain letters, spaces, hyphens and apostrophes")
	}
	return nil
}

func ValidateAge(age int) *shared.AppError {
	if age < 1 || age > 120 {
		return shared.NewValidationError("age", age, "age must be between 1 and 120")
	}
	return nil
}

func ValidateEmail(email string) *shared.AppError {
	if err := validate.Var(email, "required,email"); err != nil {
		return shared.NewValidationError("email", email, "email must be a valid email address")
	}
	return nil
}
