package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/quickshow/quickshow/internal/domain"
)

var dateRgx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var timeRgx = regexp.MustCompile(`^\d{2}:\d{2}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_id", validateSeatID)
	validator.RegisterValidation("show_date", validateShowDate)
	validator.RegisterValidation("show_time", validateShowTime)

	return validator
}

func validateSeatID(fl validator.FieldLevel) bool {
	return domain.ValidSeatID(fl.Field().String())
}

func validateShowDate(fl validator.FieldLevel) bool {
	return dateRgx.MatchString(fl.Field().String())
}

func validateShowTime(fl validator.FieldLevel) bool {
	return timeRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", err.Param())
	case "max":
		return fmt.Sprintf("must have at most %s element(s)", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "seat_id":
		return "must be a valid seat ID (rows A-J, columns 1-9)"
	case "show_date":
		return "must be a date in YYYY-MM-DD format"
	case "show_time":
		return "must be a time in HH:MM format"
	case "dive":
		return "contains an invalid element"
	default:
		return "is invalid"
	}
}
