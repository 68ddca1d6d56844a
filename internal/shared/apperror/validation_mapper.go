package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// policy_id -> Policy Id
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}

// MapValidationError turns the first binding failure into a VALIDATION_ERROR.
func MapValidationError(err error) *AppError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		field := formatFieldName(e.Field())

		switch e.Tag() {
		case "required":
			return RequiredField(field)
		case "oneof":
			return InvalidField(field).WithDetails(map[string]any{
				"field":   e.Field(),
				"allowed": strings.Fields(e.Param()),
			})
		default:
			return InvalidField(field).WithDetails(map[string]any{"field": e.Field()})
		}
	}

	return New(CodeValidation, "Invalid input", http.StatusBadRequest)
}
