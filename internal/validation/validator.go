// Package validation wraps go-playground/validator v10 with the payload
// schemas used by the API and translates field errors into the messages
// returned to clients.
//
// Field names in errors are the JSON names of the payload, so a failing
// ReleaseYear is reported as "release_year".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// nowFunc is swapped in tests that pin the current year.
var nowFunc = time.Now

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// RequestValidationError collects every field failure of one payload.
type RequestValidationError struct {
	errs []FieldError
}

// Errors returns the collected field failures.
func (ve *RequestValidationError) Errors() []FieldError {
	if ve == nil {
		return nil
	}
	return ve.errs
}

// Add appends a failure detected outside the validator, such as a form
// value that could not be parsed.
func (ve *RequestValidationError) Add(field, tag, message string) {
	ve.errs = append(ve.errs, FieldError{Field: field, Tag: tag, Message: message})
}

// Has reports whether field already has a recorded failure.
func (ve *RequestValidationError) Has(field string) bool {
	for _, e := range ve.Errors() {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Merge appends other's failures, skipping fields already reported.
func (ve *RequestValidationError) Merge(other *RequestValidationError) {
	for _, e := range other.Errors() {
		if !ve.Has(e.Field) {
			ve.errs = append(ve.errs, e)
		}
	}
}

// Empty reports whether no failure was recorded.
func (ve *RequestValidationError) Empty() bool {
	return ve == nil || len(ve.errs) == 0
}

// Err returns ve as an error, or nil when it is empty.
func (ve *RequestValidationError) Err() error {
	if ve.Empty() {
		return nil
	}
	return ve
}

func (ve *RequestValidationError) Error() string {
	if ve.Empty() {
		return "validation failed"
	}
	msgs := make([]string, 0, len(ve.errs))
	for _, e := range ve.errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator.  Its struct cache is safe for
// concurrent use; no other state is held.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "releaseyear", validReleaseYear)
		mustRegister(v, "notblank", notBlank)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// MaxReleaseYear is the latest accepted release year.
func MaxReleaseYear() int {
	return nowFunc().Year() + 5
}

func validReleaseYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(MaxReleaseYear())
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidateStruct validates s and returns nil or the collected failures.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{errs: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := &RequestValidationError{errs: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.errs = append(out.errs, FieldError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace so dive
// errors read "genre[1]" rather than "MovieFields.genre[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

var messages = map[string]string{
	"required": "%s is required",
	"notblank": "%s must not be blank",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
}

func translate(fe validator.FieldError) string {
	field := fieldPath(fe)
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	switch fe.Tag() {
	case "releaseyear":
		return fmt.Sprintf("%s cannot be later than %d", field, MaxReleaseYear())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "min", "max":
		return translateMinMax(fe, field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func translateMinMax(fe validator.FieldError, field string) string {
	bound := "at least"
	if fe.Tag() == "max" {
		bound = "at most"
	}
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("%s must have %s %s items", field, bound, fe.Param())
	default:
		return fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
	}
}
