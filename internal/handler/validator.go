package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/backoffice/internal/apperror"
)

// Validator implements echo.Validator with go-playground/validator.
// Failures are reported as invalid_input naming the offending JSON fields.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a validator reporting fields by their json name
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate checks the validate tags of i
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	reason := strings.Join(fields, ", ")
	return apperror.Validation(apperror.CodeInvalidInput, "invalid fields: "+reason).
		With("Reason", reason).
		Wrap(err)
}
