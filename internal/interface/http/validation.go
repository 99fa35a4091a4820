package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// useJSONFieldNames makes validation errors report json/form names instead of Go field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
}

// bindingError converts a gin binding failure into a 400, listing the offending fields when
// the failure came from validation rather than decoding.
func bindingError(err error) *HTTPError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	}
	httpErr := NewHTTPError(http.StatusBadRequest, "invalid_request", "validation failed", err)
	httpErr.Fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		httpErr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return httpErr
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q check", field, fe.Tag())
	}
}
