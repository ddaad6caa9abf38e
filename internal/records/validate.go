package records

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"automation-console/backend/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("chatbot_model_type", func(fl validator.FieldLevel) bool {
		return models.IsChatbotModelType(fl.Field().String())
	})
	return v
}

// Validate checks the struct tags of a record and returns
// models.ValidationErrors describing every rejected field.
func Validate(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var out models.ValidationErrors
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), "%s", describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "chatbot_model_type":
		return fmt.Sprintf("%q is not a supported model type", fe.Value())
	case "url":
		return "must be a valid URL"
	case "ip":
		return "must be a valid IP address"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
