package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// DateLayout is the calendar date format accepted in requests.
const DateLayout = "2006-01-02"

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = fld.Tag.Get("schema")
		}
		return name
	})

	registerCustomValidations()
}

var enums = map[string][]string{
	"user_type":     {"tenant", "landlord"},
	"booking_type":  {"night", "month"},
	"document_type": {"passport", "id_card", "contract", "payment_proof", "other"},
	"property_type": {"apartment", "house", "studio", "room", "villa"},
}

func registerCustomValidations() {
	for tag, values := range enums {
		allowed := values
		validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			v := fl.Field().String()
			for _, a := range allowed {
				if v == a {
					return true
				}
			}
			return false
		})
	}

	validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid UUID"
		case "date":
			errors[field] = "Invalid date, expected YYYY-MM-DD"
		case "oneof":
			errors[field] = "Must be one of: " + strings.Join(strings.Fields(err.Param()), ", ")
		case "latitude", "longitude":
			errors[field] = "Invalid coordinate"
		default:
			if values, ok := enums[err.Tag()]; ok {
				errors[field] = "Must be one of: " + strings.Join(values, ", ")
				continue
			}
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
