// Package validation wraps go-playground/validator with the rules the web
// forms need and turns its errors into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// Validator checks tagged structs. Field names in results come from the
// `form` tag so they line up with HTML input names.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom "usstate" and "isodate" rules
// registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		return models.IsUSState(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseISODate(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Struct validates s. It returns nil or a map from form field name to a
// human readable message, keeping the first failure per field.
func (val *Validator) Struct(s any) (map[string]string, error) {
	err := val.v.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out, nil
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Enter a valid email address"
	case "usstate":
		return "Select a state"
	case "isodate":
		return label + " must be a date (YYYY-MM-DD)"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	}
	return label + " is invalid"
}

// Label turns a form field name like "zip_code" into "Zip code".
func Label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
