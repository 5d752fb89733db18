package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"commandcenter-be/internal/pkg/logger"
)

// ErrorHandlerMiddleware is installed as the fiber app ErrorHandler. It maps
// known error shapes to JSON envelopes and hides internals behind a 500.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var reqValidation *RequestValidationError
		if errors.As(err, &reqValidation) {
			return ErrorResponse(c, fiber.StatusBadRequest, "request validation failed", reqValidation.Fields)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ErrorResponse(c, fiberErr.Code, fiberErr.Message, nil)
		}

		log.Error("http", "unhandled error", map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
			"error":  err.Error(),
		})
		return ErrorResponse(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
