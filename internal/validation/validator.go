// Package validation wraps validator/v10 and reports failures as per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their JSON tag. Besides the
// built-in rules it knows "notblank", which rejects whitespace-only strings.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct. Failures come back as a validation error whose
// Fields hold one message per failed rule, keyed by JSON field name.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var fields domainerrors.FieldErrors
	for _, e := range verrs {
		fields.Add(fieldName(e), message(e))
	}
	return fields.Err()
}

// fieldName drops slice indexes so "tags[2]" reports under "tags".
func fieldName(e validator.FieldError) string {
	name := e.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}

//nolint:gocyclo // One case per supported tag.
func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		if e.Kind() == reflect.String {
			return "This field may not be blank."
		}
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s elements.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s elements.", e.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", e.Param())
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", e.Param())
	default:
		return "Invalid value."
	}
}
