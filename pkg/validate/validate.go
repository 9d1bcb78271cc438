// Package validate checks console forms and API payloads before they leave
// the process.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput matches every *Error.
var ErrInvalidInput = errors.New("invalid input")

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match what the operator typed into
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("phone", validPhone)
	return val
}

// validPhone accepts local numbers: digits with an optional leading '+',
// 8 to 15 digits long.
func validPhone(fl validator.FieldLevel) bool {
	s := strings.TrimPrefix(strings.TrimSpace(fl.Field().String()), "+")
	if len(s) < 8 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return &Error{Errors: ve}
		}
		return err
	}
	return nil
}

type Error struct {
	Errors validator.ValidationErrors
}

func (e *Error) Error() string {
	return strings.Join(e.Messages(), ", ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalidInput }

// Messages returns one line per failing field, ordered by field name.
func (e *Error) Messages() []string {
	fields := e.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+" "+fields[name])
	}
	return out
}

// Fields maps field names to messages.
func (e *Error) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = msgForTag(fe)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
