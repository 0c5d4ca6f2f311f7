// Package service implements the application's use cases on top of the repositories.
package service

import (
	"errors"
	"fmt"
	"strings"

	"procrastinators/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns the first failed struct rule into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(err.Error())
	}

	fe := verrs[0]
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return models.NewValidationError(field + " is required")
	case "max":
		return models.NewValidationError(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return models.NewValidationError(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	default:
		return models.NewValidationError(field + " is invalid")
	}
}

// fieldLabel converts a Go field name into lower-case words: HoursProcrastinated -> hours procrastinated.
func fieldLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func requireAuthenticated(p models.Principal) error {
	if !p.Authenticated() {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}
