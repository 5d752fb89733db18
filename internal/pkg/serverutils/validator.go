package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateRequest parses the JSON body into out and runs struct validation.
// Returns a *fiber.Error with attached field errors on failure.
func ValidateRequest(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			fields := make([]ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, ValidationError{
					Field:   strings.ToLower(fe.Field()),
					Message: messageForTag(fe),
				})
			}
			return &RequestValidationError{Fields: fields}
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed validation on '%s'", fe.Tag())
	}
}

// RequestValidationError carries per-field messages through the fiber error
// handler so it can build a structured 400 response.
type RequestValidationError struct {
	Fields []ValidationError
}

func (e *RequestValidationError) Error() string {
	return "request validation failed"
}
