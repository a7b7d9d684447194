// Package validation wraps go-playground/validator so the domain services
// report bad input the same way.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MissingFieldsMessage is the message carried by required-field failures.
const MissingFieldsMessage = "missing required fields"

// Error lists the request fields (by JSON name) that failed validation.
type Error struct {
	Fields  []string
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = MissingFieldsMessage
	}
	if len(e.Fields) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(e.Fields, ", ")
}

// InvalidFields exposes the failing field names to transport code.
func (e *Error) InvalidFields() []string {
	return e.Fields
}

// New returns a validator that names fields by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates s and converts field failures into *Error. Any other
// validator error is returned unchanged.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
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
	return &Error{Fields: fields}
}

// Invalid builds an Error for one field with a specific message.
func Invalid(field, message string) *Error {
	return &Error{Fields: []string{field}, Message: message}
}
