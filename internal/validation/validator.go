// Package validation checks user-supplied input structs with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every *Error.
var ErrInvalid = errors.New("invalid input")

// Error lists the failed fields with a readable message each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Has reports whether the named field failed.
func (e *Error) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Validator wraps go-playground/validator with readable errors.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" || name == "-" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			return name[:i]
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns an *Error on failure.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
