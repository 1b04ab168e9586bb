// Package validator runs struct-tag validation and reports failures as a
// per-field error map.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// ErrValidation is the sentinel every validation failure unwraps to.
var ErrValidation = errors.New("validation failed")

const messagePrefix = "validation failed: "

// Error carries the failing fields, keyed by their JSON names.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	data, err := json.Marshal(e.Fields)
	if err != nil {
		return ErrValidation.Error()
	}
	return messagePrefix + string(data)
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	// notblank rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Struct validates s against its `validate` tags. It returns nil or an
// *Error holding the first failure of each field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, ok := fields[fe.Field()]; !ok {
			fields[fe.Field()] = message(fe)
		}
	}
	return &Error{Fields: fields}
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// FieldError is a shortcut for a single failing field.
func FieldError(key, msg string) error {
	return &Error{Fields: map[string]string{key: msg}}
}

// Parse rebuilds an *Error from a message that went through a transport
// which only preserves error text.
func Parse(msg string) (*Error, bool) {
	idx := strings.Index(msg, messagePrefix)
	if idx < 0 {
		if strings.Contains(msg, ErrValidation.Error()) {
			return &Error{Fields: map[string]string{}}, true
		}
		return nil, false
	}

	rest := strings.TrimSpace(msg[idx+len(messagePrefix):])
	fields := make(map[string]string)
	if err := json.Unmarshal([]byte(rest), &fields); err != nil {
		fields = map[string]string{"request": rest}
	}
	return &Error{Fields: fields}, true
}
