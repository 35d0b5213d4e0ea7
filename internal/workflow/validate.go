package workflow

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Iron-Ham/coursegen/internal/errors"
)

var validate = newValidator()

// newValidator builds the validator shared by every request type. Field
// names are reported by their JSON name. Lengths of text fields count runes
// after trimming surrounding whitespace, the way the input forms do.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "trimmin", func(fl validator.FieldLevel) bool {
		return trimmedLen(fl) >= paramInt(fl)
	})
	mustRegister(v, "trimmax", func(fl validator.FieldLevel) bool {
		return trimmedLen(fl) <= paramInt(fl)
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return trimmedLen(fl) > 0
	})
	mustRegister(v, "somefilled", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice {
			return false
		}
		for i := range field.Len() {
			if strings.TrimSpace(field.Index(i).String()) != "" {
				return true
			}
		}
		return false
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func trimmedLen(fl validator.FieldLevel) int {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
}

func paramInt(fl validator.FieldLevel) int {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("bad %s parameter %q", fl.GetTag(), fl.Param()))
	}
	return n
}

// Validator returns the validator used for request types, for code that
// checks requests on the receiving side.
func Validator() *validator.Validate {
	return validate
}

// ValidateRequest checks req against its validate tags and reports the
// first violation as a *errors.ValidationError.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) *errors.ValidationError {
	var msg string
	withValue := false
	switch fe.Tag() {
	case "required", "notblank":
		msg = "is required"
	case "trimmin":
		msg = fmt.Sprintf("must be at least %s characters", fe.Param())
	case "trimmax":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		msg = fmt.Sprintf("must be at least %s", fe.Param())
		withValue = true
	case "max":
		msg = fmt.Sprintf("must be at most %s", fe.Param())
		withValue = true
	case "oneof":
		msg = "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
		withValue = true
	case "somefilled":
		msg = "at least one entry is required"
	default:
		msg = fmt.Sprintf("failed the %s check", fe.Tag())
	}

	err := errors.NewValidationError(msg).WithField(fe.Field()).WithCause(fe)
	if withValue {
		err = err.WithValue(fe.Value())
	}
	return err
}
