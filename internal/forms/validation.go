package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"rideaxis/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key for errors that do not belong to one field.
const NonFieldErrors = "__all__"

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine:
// route, ridestatus and seatstatus. Field names in errors follow the json tag.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation("route", func(fl validator.FieldLevel) bool {
			return models.IsValidRoute(fl.Field().String())
		})
		_ = v.RegisterValidation("ridestatus", func(fl validator.FieldLevel) bool {
			return models.RideStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("seatstatus", func(fl validator.FieldLevel) bool {
			return models.SeatStatus(fl.Field().String()).IsValid()
		})
	})
}

// FieldError is a single message attached to a form field.
type FieldError struct {
	Field   string
	Message string
}

// Errors keeps field errors in the order they were found.
type Errors []FieldError

func (e Errors) Error() string {
	return e.Text()
}

// Text joins every message with a space.
func (e Errors) Text() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, " ")
}

// Map returns the first message per field.
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

func (e Errors) Add(field, message string) Errors {
	return append(e, FieldError{Field: field, Message: message})
}

// ValidationErrors turns a bind error into field errors. Decoding errors
// that are not tied to a field land under NonFieldErrors.
func ValidationErrors(err error) Errors {
	if err == nil {
		return nil
	}

	var formErrs Errors
	if errors.As(err, &formErrs) {
		return formErrs
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = out.Add(fieldName(fe), message(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return Errors{{Field: typeErr.Field, Message: "Enter a valid value."}}
	}

	return Errors{{Field: NonFieldErrors, Message: "Invalid request data."}}
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at most %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof", "route", "ridestatus", "seatstatus":
		return "Select a valid choice."
	case "latitude", "longitude":
		return "Enter a valid coordinate."
	}
	return "Enter a valid value."
}
