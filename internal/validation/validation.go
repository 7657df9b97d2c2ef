// Package validation holds the declarative field rules for the gateway forms.
//
// Every schema is a plain struct checked with go-playground/validator. A schema
// never touches the network: Validate either returns nil or a map from the JSON
// field name to a message that can be shown next to the field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldErrors maps a JSON field name to a human-readable message.
type FieldErrors map[string]string

// Error implements error so a FieldErrors value can travel through error returns.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation passed"
	}
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// formField is used for errors that cannot be tied to a single field.
const formField = "_form"

// Login is the sign-in form.
type Login struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}

// Signup is the account creation form.
type Signup struct {
	Username string `json:"username" validate:"required,notblank,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank,min=8"`
}

// Profile is the edit-profile dialog.
type Profile struct {
	Username string `json:"username" validate:"required,notblank,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Bio      string `json:"bio" validate:"max=2200"`
}

// NewPost is the create-post form. Tags is the raw comma separated input.
type NewPost struct {
	Caption  string `json:"caption" validate:"required,notblank,min=5,max=2200"`
	Location string `json:"location" validate:"max=100"`
	Tags     string `json:"tags" validate:"max=100"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so errors line up with request payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// required alone accepts "   ".
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a schema value and returns nil when it passes.
// Only the first failing rule of each field is reported.
func Validate(schema any) FieldErrors {
	err := validate.Struct(schema)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{formField: err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
