package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned by Bind when the body is malformed or breaks a rule.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", notBlank)
	v.RegisterStructValidation(validatePriorityRange, FilterRequest{})
	return v
}

// notBlank rejects strings made only of whitespace.
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func validatePriorityRange(sl validator.StructLevel) {
	f := sl.Current().Interface().(FilterRequest)
	if f.PriorityMin != nil && f.PriorityMax != nil && *f.PriorityMin > *f.PriorityMax {
		sl.ReportError(f.PriorityMax, "priority_max", "PriorityMax", "gtefield", "priority_min")
	}
}

// Bind decodes a JSON body into dst and validates it. An empty body decodes as {}.
func Bind(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return &ValidationError{Fields: []FieldError{{
				Field:   "body",
				Rule:    "json",
				Message: "the request body must be a valid JSON object",
			}}}
		}
	}
	return Validate(dst)
}

// Validate runs the struct tag rules of dst.
func Validate(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the %s field is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("the %s field must not be blank", fe.Field())
	case "oneof":
		return fmt.Sprintf("the %s field must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("the %s field must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("the %s field may not be greater than %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("the %s field must be greater than %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("the %s field must be a valid email address", fe.Field())
	case "gtefield":
		return fmt.Sprintf("the %s field must not be less than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("the %s field is invalid", fe.Field())
	}
}
